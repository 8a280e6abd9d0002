package main

import (
	"os"

	"github.com/phil-mansfield/genic/lib/command"
	"github.com/phil-mansfield/genic/lib/config"
	g_error "github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/thread"
)

func main() {
	scriptName, configName := parseCommandLine()

	// The INI file only holds output settings. The script's own output
	// commands override it, so running without one is fine.
	cfg := config.Default()
	if configName != "" {
		var err error
		cfg, err = config.Read(configName)
		if err != nil {
			g_error.External(g_error.ConfigError, "%s", err.Error())
		}
	}
	thread.Set(cfg.Output.Threads)

	file, err := os.Open(scriptName)
	if err != nil {
		g_error.External(g_error.IOError,
			"The command script '%s' could not be opened: %s",
			scriptName, err.Error())
	}
	defer file.Close()

	e := command.NewEngine(cfg)
	if err := command.Script(e, file); err != nil { g_error.Fatal(err) }
}

// parseCommandLine returns the script path and the optional
// configuration file path.
func parseCommandLine() (script, configFile string) {
	switch len(os.Args) {
	case 2:
		return os.Args[1], ""
	case 3:
		return os.Args[1], os.Args[2]
	}
	g_error.External(g_error.ConfigError,
		"genic takes a command script and an optional configuration "+
			"file:\n    genic script.txt [genic.ini]\nIt was given %d "+
			"arguments instead.", len(os.Args)-1)
	return "", ""
}
