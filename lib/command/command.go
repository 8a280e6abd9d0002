/*package command interprets genic's line-oriented scripts. Each line is
one command followed by whitespace-separated arguments:

    Om 0.27
    camb transfer.dat
    seed 42
    base_grid 100 32
    centre 37.5 37.5 37.5
    select_nearest
    constrain overdensity absolute 2.5
    done

Command names are case-insensitive. Blank lines and lines starting with
'#' are skipped. The dispatcher converts arguments to their declared
types and hands them to an Engine method, so handlers never touch raw
strings unless the command's grammar is irregular.
*/
package command

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/phil-mansfield/genic/lib/constraint"
	g_error "github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/random"
)

// argKind declares the type a positional argument is converted to
// before the handler runs.
type argKind int

const (
	intArg argKind = iota
	floatArg
	stringArg
	pathArg
)

// command pairs a handler with the types of its arguments. Arguments in
// opt may be omitted from the end of the line. A variadic command gets
// its tokens as uninterpreted strings and parses them itself.
type command struct {
	args []argKind
	opt []argKind
	variadic bool
	run func(e *Engine, args []interface{}) error
}

var commands = map[string]*command{
	"om": floatSetter(func(e *Engine, x float64) { e.Params.OmegaM = x }),
	"ol": floatSetter(func(e *Engine, x float64) { e.Params.OmegaL = x }),
	"s8": floatSetter(func(e *Engine, x float64) { e.Params.Sigma8 = x }),
	"zin": floatSetter(func(e *Engine, x float64) { e.Params.ZIn = x }),
	"ns": floatSetter(func(e *Engine, x float64) { e.Params.NS = x }),
	"hubble": floatSetter(func(e *Engine, x float64) { e.Params.H100 = x }),
	"boxlength": floatSetter(func(e *Engine, x float64) { e.boxL = x }),

	"n": &command{ args: []argKind{ intArg },
		run: func(e *Engine, args []interface{}) error {
			e.nCells = args[0].(int)
			return nil
		},
	},

	"camb": &command{ args: []argKind{ pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.LoadTable(args[0].(string))
		},
	},

	"seed": seedSetter(random.Real),
	"seedfourier": seedSetter(random.Fourier),
	"seedfourier_reverse": seedSetter(random.FourierReversed),

	"exactpower": &command{
		run: func(e *Engine, args []interface{}) error {
			e.SetExact()
			return nil
		},
	},

	"base_grid": &command{ variadic: true,
		run: func(e *Engine, args []interface{}) error {
			return runBaseGrid(e, stringArgs(args))
		},
	},

	"zoom_grid": &command{ args: []argKind{ intArg, intArg },
		run: func(e *Engine, args []interface{}) error {
			return e.ZoomGrid(args[0].(int), args[1].(int))
		},
	},

	"idfile": &command{ args: []argKind{ pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.LoadIDs(args[0].(string), false)
		},
	},
	"append_idfile": &command{ args: []argKind{ pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.LoadIDs(args[0].(string), true)
		},
	},

	"selectsphere": &command{ args: []argKind{ floatArg },
		run: func(e *Engine, args []interface{}) error {
			return e.SelectSphere(args[0].(float64))
		},
	},
	"selectcube": &command{ args: []argKind{ floatArg },
		run: func(e *Engine, args []interface{}) error {
			return e.SelectCube(args[0].(float64))
		},
	},
	"select_nearest": &command{
		run: func(e *Engine, args []interface{}) error {
			return e.SelectNearest()
		},
	},

	"centre": &command{ args: []argKind{ floatArg, floatArg, floatArg },
		run: func(e *Engine, args []interface{}) error {
			e.SetCentre(args[0].(float64), args[1].(float64),
				args[2].(float64))
			return nil
		},
	},

	"calculate": &command{ args: []argKind{ stringArg },
		opt: []argKind{ stringArg },
		run: func(e *Engine, args []interface{}) error {
			name := args[0].(string)
			if len(args) == 1 {
				return e.Calculate(name, 0, false)
			}
			axis, err := parseAxis(args[1].(string))
			if err != nil { return err }
			return e.Calculate(name, axis, true)
		},
	},

	"constrain": &command{ variadic: true,
		run: func(e *Engine, args []interface{}) error {
			return runConstrain(e, stringArgs(args))
		},
	},
	"constrain_direction": &command{ variadic: true,
		run: func(e *Engine, args []interface{}) error {
			return runConstrainDirection(e, stringArgs(args))
		},
	},

	"reverse": &command{
		run: func(e *Engine, args []interface{}) error {
			return e.Reverse()
		},
	},
	"reverse_smallk": &command{ args: []argKind{ floatArg },
		run: func(e *Engine, args []interface{}) error {
			return e.ReverseSmallK(args[0].(float64))
		},
	},
	"reseed_smallk": &command{ args: []argKind{ floatArg, intArg },
		run: func(e *Engine, args []interface{}) error {
			seed, err := toSeed(args[1].(int))
			if err != nil { return err }
			return e.ReseedSmallK(args[0].(float64), seed)
		},
	},

	"dumpgrid": &command{ args: []argKind{ intArg, pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.DumpGrid(args[0].(int), args[1].(string))
		},
	},
	"dumpps": &command{ args: []argKind{ intArg, pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.DumpPS(args[0].(int), args[1].(string))
		},
	},
	"dumpid": &command{ args: []argKind{ pathArg },
		run: func(e *Engine, args []interface{}) error {
			return e.DumpIDs(args[0].(string))
		},
	},

	"gadget2": formatSetter("gadget2"),
	"gadget3": formatSetter("gadget3"),
	"outdir": &command{ args: []argKind{ pathArg },
		run: func(e *Engine, args []interface{}) error {
			e.Cfg.Output.Dir = args[0].(string)
			return nil
		},
	},
	"outname": &command{ args: []argKind{ stringArg },
		run: func(e *Engine, args []interface{}) error {
			e.Cfg.Output.Name = args[0].(string)
			return nil
		},
	},

	"done": &command{
		run: func(e *Engine, args []interface{}) error {
			return e.Done()
		},
	},
}

func floatSetter(set func(e *Engine, x float64)) *command {
	return &command{ args: []argKind{ floatArg },
		run: func(e *Engine, args []interface{}) error {
			set(e, args[0].(float64))
			return nil
		},
	}
}

func seedSetter(mode random.Mode) *command {
	return &command{ args: []argKind{ intArg },
		run: func(e *Engine, args []interface{}) error {
			seed, err := toSeed(args[0].(int))
			if err != nil { return err }
			e.SetSeed(seed, mode)
			return nil
		},
	}
}

func formatSetter(format string) *command {
	return &command{
		run: func(e *Engine, args []interface{}) error {
			e.Cfg.Output.Format = format
			return nil
		},
	}
}

func toSeed(n int) (uint64, error) {
	if n < 0 {
		return 0, g_error.New(g_error.ConfigError,
			"the seed %d is negative.", n)
	}
	return uint64(n), nil
}

func stringArgs(args []interface{}) []string {
	toks := make([]string, len(args))
	for i := range args { toks[i] = args[i].(string) }
	return toks
}

func parseAxis(tok string) (constraint.Axis, error) {
	switch strings.ToLower(tok) {
	case "x": return constraint.X, nil
	case "y": return constraint.Y, nil
	case "z": return constraint.Z, nil
	}
	return 0, g_error.New(g_error.ConfigError,
		"the axis '%s' is not recognized. The valid axes are "+
			"'x', 'y', and 'z'.", tok)
}

// runBaseGrid accepts either an explicit "base_grid L n" or a bare
// "base_grid" that falls back to the boxlength and n commands.
func runBaseGrid(e *Engine, toks []string) error {
	switch len(toks) {
	case 0:
		if e.boxL <= 0 || e.nCells <= 0 {
			return g_error.New(g_error.ConfigError,
				"base_grid without arguments needs boxlength and n to "+
					"have been set first.")
		}
		return e.BaseGrid(e.boxL, e.nCells)
	case 2:
		boxL, err := strconv.ParseFloat(toks[0], 64)
		if err != nil {
			return g_error.New(g_error.ConfigError,
				"the box size '%s' is not a number.", toks[0])
		}
		n, err := strconv.Atoi(toks[1])
		if err != nil {
			return g_error.New(g_error.ConfigError,
				"the cell count '%s' is not an integer.", toks[1])
		}
		return e.BaseGrid(boxL, n)
	}
	return g_error.New(g_error.ConfigError,
		"base_grid takes either no arguments or a box size and a cell "+
			"count, not %d arguments.", len(toks))
}

// runConstrain parses "constrain name [axis] relative|absolute value".
func runConstrain(e *Engine, toks []string) error {
	if len(toks) < 3 || len(toks) > 4 {
		return g_error.New(g_error.ConfigError,
			"constrain takes a functional name, an optional axis, a "+
				"'relative' or 'absolute' marker, and a target value.")
	}

	name := toks[0]
	hasAxis := len(toks) == 4
	axis := constraint.Axis(0)
	if hasAxis {
		var err error
		axis, err = parseAxis(toks[1])
		if err != nil { return err }
		toks = toks[2:]
	} else {
		toks = toks[1:]
	}

	relative := false
	switch strings.ToLower(toks[0]) {
	case "relative": relative = true
	case "absolute":
	default:
		return g_error.New(g_error.ConfigError,
			"the constraint mode '%s' is not recognized. Use 'relative' "+
				"or 'absolute'.", toks[0])
	}

	value, err := strconv.ParseFloat(toks[1], 64)
	if err != nil {
		return g_error.New(g_error.ConfigError,
			"the target value '%s' is not a number.", toks[1])
	}
	return e.Constrain(name, axis, hasAxis, relative, value)
}

// runConstrainDirection parses
// "constrain_direction name [and_renormalize] dx dy dz [factor]". The
// vector's current magnitude is kept unless a factor scales it.
func runConstrainDirection(e *Engine, toks []string) error {
	if len(toks) < 4 {
		return g_error.New(g_error.ConfigError,
			"constrain_direction takes a functional name, an optional "+
				"'and_renormalize' marker, a direction vector, and an "+
				"optional scale factor.")
	}

	name := toks[0]
	toks = toks[1:]
	renormalize := strings.ToLower(toks[0]) == "and_renormalize"
	if renormalize { toks = toks[1:] }

	if len(toks) != 3 && !(renormalize && len(toks) == 4) {
		return g_error.New(g_error.ConfigError,
			"constrain_direction needs exactly three direction "+
				"components, got %d arguments after the name.", len(toks))
	}

	dir := [3]float64{ }
	for d := 0; d < 3; d++ {
		x, err := strconv.ParseFloat(toks[d], 64)
		if err != nil {
			return g_error.New(g_error.ConfigError,
				"the direction component '%s' is not a number.", toks[d])
		}
		dir[d] = x
	}

	renorm := 1.0
	if renormalize && len(toks) == 4 {
		x, err := strconv.ParseFloat(toks[3], 64)
		if err != nil {
			return g_error.New(g_error.ConfigError,
				"the renormalization factor '%s' is not a number.", toks[3])
		}
		renorm = x
	}
	return e.ConstrainDirection(name, dir, renorm)
}

// Run executes a single script line against e. Blank lines and comments
// are no-ops.
func Run(e *Engine, line string) error {
	if i := strings.Index(line, "#"); i >= 0 { line = line[:i] }
	toks := strings.Fields(line)
	if len(toks) == 0 { return nil }

	name := strings.ToLower(toks[0])
	cmd, ok := commands[name]
	if !ok {
		return g_error.New(g_error.ConfigError,
			"the command '%s' is not recognized.", name)
	}

	args, err := convertArgs(cmd, name, toks[1:])
	if err != nil { return err }

	g_error.Command = name
	defer func() { g_error.Command = "" }()

	if err := cmd.run(e, args); err != nil {
		if gerr, ok := err.(*g_error.Error); ok {
			gerr.Msg = "command '" + name + "': " + gerr.Msg
			return gerr
		}
		return g_error.New(g_error.ConfigError,
			"command '%s': %s", name, err.Error())
	}
	return nil
}

// convertArgs checks the argument count against cmd's signature and
// converts each token to its declared type.
func convertArgs(
	cmd *command, name string, toks []string,
) ([]interface{}, error) {
	if cmd.variadic {
		args := make([]interface{}, len(toks))
		for i := range toks { args[i] = toks[i] }
		return args, nil
	}

	min, max := len(cmd.args), len(cmd.args)+len(cmd.opt)
	if len(toks) < min || len(toks) > max {
		if min == max {
			return nil, g_error.New(g_error.ConfigError,
				"the command '%s' takes %d arguments, got %d.",
				name, min, len(toks))
		}
		return nil, g_error.New(g_error.ConfigError,
			"the command '%s' takes %d to %d arguments, got %d.",
			name, min, max, len(toks))
	}

	kinds := append(append([]argKind{ }, cmd.args...), cmd.opt...)
	args := make([]interface{}, len(toks))
	for i := range toks {
		switch kinds[i] {
		case intArg:
			n, err := strconv.Atoi(toks[i])
			if err != nil {
				return nil, g_error.New(g_error.ConfigError,
					"argument %d of '%s' must be an integer, got '%s'.",
					i+1, name, toks[i])
			}
			args[i] = n
		case floatArg:
			x, err := strconv.ParseFloat(toks[i], 64)
			if err != nil {
				return nil, g_error.New(g_error.ConfigError,
					"argument %d of '%s' must be a number, got '%s'.",
					i+1, name, toks[i])
			}
			args[i] = x
		default:
			args[i] = toks[i]
		}
	}
	return args, nil
}

// Script runs every line read from r, stopping at the first error.
func Script(e *Engine, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if err := Run(e, scanner.Text()); err != nil {
			if gerr, ok := err.(*g_error.Error); ok {
				gerr.Msg = "line " + strconv.Itoa(line) + ": " + gerr.Msg
				return gerr
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return g_error.Wrap(g_error.IOError, err)
	}
	return nil
}
