/*package error contains simple funcitons for reporting genic errors.

Fatal errors are grouped into kinds so that the one-line message printed on
exit names both the kind and, when known, the command that triggered it.
*/
package error

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// Kind labels a class of fatal error.
type Kind string

const (
	ConfigError           Kind = "ConfigError"
	IOError               Kind = "IOError"
	GridError             Kind = "GridError"
	DomainMismatch        Kind = "DomainMismatch"
	DegenerateConstraints Kind = "DegenerateConstraints"
	NullCovector          Kind = "NullCovector"
	NoConvergence         Kind = "NoConvergence"
)

// Command is set by the interpreter to the name of the command currently
// executing, so fatal errors can name their trigger. It is "" outside of
// script execution.
var Command = ""

// Error is an error value tagged with its Kind, for callers that report
// failures to their own caller instead of exiting.
type Error struct {
	Kind Kind
	Msg string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

// New returns a Kind-tagged error.
func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{ Kind: kind, Msg: fmt.Sprintf(format, a...) }
}

// Wrap tags err with kind. Errors that already carry a kind keep it.
func Wrap(kind Kind, err error) *Error {
	if e, ok := err.(*Error); ok { return e }
	return &Error{ Kind: kind, Msg: err.Error() }
}

// Fatal reports err through External, using its Kind when it has one and
// ConfigError otherwise.
func Fatal(err error) {
	if e, ok := err.(*Error); ok {
		External(e.Kind, "%s", e.Msg)
	} else {
		External(ConfigError, "%s", err.Error())
	}
}

// External reports an error to stderr and kills the program. It should be used
// when an error is something a user could reasonbly be expected to fix through
// changes in configuration/data/environement. It has the same signature at the
// standard fmt.*printf() functions, prefixed by the error kind.
func External(kind Kind, format string, a ...interface{}) {
	where := ""
	if Command != "" {
		where = fmt.Sprintf(" (command '%s')", Command)
	}
	log.Printf("genic exited early with the following error:\n%s%s: "+format,
		append([]interface{}{string(kind), where}, a...)...)
	os.Exit(1)
}

// Internal reports an error to stderr along with a strack trace and kills the
// program. It should be used when the error requires a code dive to fix. It
// has the same signature at the standard fmt.*printf() functions.
func Internal(format string, a ...interface{}) {
	log.Println("genic exited early with the following error:")
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n\n")
	debug.PrintStack()
	os.Exit(1)
}

// Warn reports a non-fatal diagnostic to stderr and returns. It is used for
// conditions like stray flagged cells outside a zoom window or an
// ill-conditioned constraint matrix, where the run can continue.
func Warn(label, format string, a ...interface{}) {
	log.Printf("genic warning (%s): "+format,
		append([]interface{}{label}, a...)...)
}
