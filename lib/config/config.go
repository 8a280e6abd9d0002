/*package config reads genic's optional INI configuration file, which
holds the output settings that do not belong in the command script:

    [output]
    dir = ics
    name = ic_{%05d,seed}.dat
    format = gadget3
    precision = float32
    threads = 8
    dumpps = true

Every setting has a default, and the script's own output commands
override whatever the file says.
*/
package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

type OutputConfig struct {
	// Dir is the directory snapshots and diagnostics are written to.
	Dir string
	// Name is the snapshot file name, expanded with lib/format. The
	// valid rules are "seed" and "zin".
	Name string
	// Format selects the snapshot flavor: "gadget2" or "gadget3".
	Format string
	// Precision selects the particle block word size: "float32" or
	// "float64".
	Precision string
	// Threads caps the number of OS threads. Zero and -1 both mean one
	// per core.
	Threads int
	// DumpPS writes a per-level power spectrum diagnostic next to the
	// snapshot.
	DumpPS bool
}

type Config struct {
	Output OutputConfig
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{ }
	cfg.Output.Dir = "."
	cfg.Output.Name = "ic_{%d,seed}.dat"
	cfg.Output.Format = "gadget2"
	cfg.Output.Precision = "float64"
	return cfg
}

// Read parses the configuration file fname on top of the defaults.
func Read(fname string) (*Config, error) {
	cfg := Default()
	if err := gcfg.ReadFileInto(cfg, fname); err != nil {
		return nil, fmt.Errorf("The config file %s could not be read: %s",
			fname, err.Error())
	}
	if err := cfg.Check(); err != nil { return nil, err }
	return cfg, nil
}

// Check validates the enumerated settings.
func (cfg *Config) Check() error {
	out := &cfg.Output
	switch out.Format {
	case "gadget2", "gadget3":
	default:
		return fmt.Errorf("The output format '%s' is not recognized. "+
			"The valid formats are 'gadget2' and 'gadget3'.", out.Format)
	}

	switch out.Precision {
	case "float32", "float64":
	default:
		return fmt.Errorf("The output precision '%s' is not recognized. "+
			"The valid precisions are 'float32' and 'float64'.",
			out.Precision)
	}

	if out.Threads < -1 {
		return fmt.Errorf("The thread count %d is not meaningful. Use -1 "+
			"for one thread per core.", out.Threads)
	}
	return nil
}
