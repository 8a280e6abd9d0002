/*package format handles genic's miniature formatting language for output
file names, e.g:

   Name = "ic_{%03d,seed}_z{%g,zin}.dat"

File format strings are a combination of fixed text and variables. Fixed
text is always the same, and variables are filled in from the run's
parameters. Variables are written as {verb,rule}. "verb" is a printf()
verb (e.g. %03d) that specifies how the variable should be printed.
"rule" names the parameter the variable takes its value from. The caller
supplies the rule table, so the set of valid rules depends on where the
format string is used.
*/
package format

import (
	"fmt"
	"sort"
	"strings"
)

// Expand substitutes every variable in format using the values in vars
// and returns the expanded string.
func Expand(format string, vars map[string]interface{}) (string, error) {
	starts, ends, err := variableSpans(format)
	if err != nil { return "", err }

	out := &strings.Builder{ }
	prev := 0
	for i := range starts {
		out.WriteString(format[prev:starts[i]])
		prev = ends[i]

		v := format[starts[i]+1 : ends[i]-1]
		verb, rule, err := splitVariable(format, v)
		if err != nil { return "", err }

		val, ok := vars[rule]
		if !ok {
			return "", fmt.Errorf("The file format '%s' uses the rule "+
				"'%s', but the only rules valid here are: %s.",
				format, rule, ruleNames(vars))
		}
		out.WriteString(fmt.Sprintf(verb, val))
	}
	out.WriteString(format[prev:])

	return out.String(), nil
}

// variableSpans returns the indices of the beginning and end of each
// format variable.
func variableSpans(format string) (starts, ends []int, err error) {
	starts, ends = []int{ }, []int{ }
	nestedLevel := 0

	ending := "Make sure variables in file formats are enclosed in " +
		"matching { ... } pairs."

	for i := range format {
		if format[i] == '{' {
			nestedLevel++
			starts = append(starts, i)
		} else if format[i] == '}' {
			nestedLevel--
			ends = append(ends, i+1)
		}

		if nestedLevel > 1 {
			end := len(starts) - 1
			return nil, nil, fmt.Errorf("The file format '%s' has nested "+
				"'{' characters, making it invalid. These '{'s are at "+
				"indices %d and %d. "+ending,
				format, starts[end-1], starts[end])
		} else if nestedLevel < 0 {
			end := len(ends) - 1
			return nil, nil, fmt.Errorf("The file format '%s' has a '}' "+
				"that doesn't come after a '{' character, making it "+
				"invalid. This '}' is at index %d. "+ending,
				format, ends[end]-1)
		}
	}

	if len(ends) != len(starts) {
		end := len(starts) - 1
		return nil, nil, fmt.Errorf("The file format '%s' has a '{' "+
			"without a matching '}', making it invalid. This '{' is at "+
			"index %d. "+ending, format, starts[end])
	}

	return starts, ends, nil
}

// splitVariable splits the inside of a { ... } pair into its verb and
// rule.
func splitVariable(format, v string) (verb, rule string, err error) {
	tok := strings.Split(v, ",")
	if len(tok) != 2 {
		return "", "", fmt.Errorf("The file format '%s' has an invalid "+
			"variable, '{%s}'. Variables should contain a formatting "+
			"verb (e.g. '%%d' or '%%03d'), a comma, and a rule naming "+
			"the value the variable takes on.", format, v)
	}

	verb = strings.Trim(tok[0], " ")
	rule = strings.Trim(tok[1], " ")
	if len(verb) == 0 || verb[0] != '%' {
		return "", "", fmt.Errorf("The file format '%s' has the variable "+
			"'{%s}' whose verb, '%s', does not start with '%%'.",
			format, v, verb)
	}

	return verb, rule, nil
}

func ruleNames(vars map[string]interface{}) string {
	names := []string{ }
	for name := range vars { names = append(names, name) }
	sort.Strings(names)
	return strings.Join(names, ", ")
}
