package config

import (
	"io/ioutil"
	"os"
	"path"
	"testing"
)

func writeTemp(t *testing.T, text string) string {
	dir, err := ioutil.TempDir("", "genic_config_test")
	if err != nil { t.Fatal(err.Error()) }
	t.Cleanup(func() { os.RemoveAll(dir) })

	fname := path.Join(dir, "genic.ini")
	if err := ioutil.WriteFile(fname, []byte(text), 0644); err != nil {
		t.Fatal(err.Error())
	}
	return fname
}

func TestReadOverridesDefaults(t *testing.T) {
	fname := writeTemp(t, `[output]
dir = ics
name = ic_{%05d,seed}.dat
format = gadget3
precision = float32
threads = 8
dumpps = true
`)

	cfg, err := Read(fname)
	if err != nil { t.Fatal(err.Error()) }

	out := cfg.Output
	if out.Dir != "ics" || out.Name != "ic_{%05d,seed}.dat" {
		t.Errorf("dir = '%s', name = '%s'.", out.Dir, out.Name)
	}
	if out.Format != "gadget3" || out.Precision != "float32" {
		t.Errorf("format = '%s', precision = '%s'.",
			out.Format, out.Precision)
	}
	if out.Threads != 8 || !out.DumpPS {
		t.Errorf("threads = %d, dumpps = %v.", out.Threads, out.DumpPS)
	}
}

func TestReadKeepsUnsetDefaults(t *testing.T) {
	cfg, err := Read(writeTemp(t, "[output]\ndir = out\n"))
	if err != nil { t.Fatal(err.Error()) }

	if cfg.Output.Format != "gadget2" ||
		cfg.Output.Precision != "float64" {
		t.Errorf("unset settings lost their defaults: format = '%s', "+
			"precision = '%s'.", cfg.Output.Format, cfg.Output.Precision)
	}
}

func TestReadRejectsBadValues(t *testing.T) {
	tests := []string{
		"[output]\nformat = hdf5\n",
		"[output]\nprecision = float16\n",
		"[output]\nthreads = -2\n",
		"[planets]\nmars = yes\n",
	}
	for i := range tests {
		if _, err := Read(writeTemp(t, tests[i])); err == nil {
			t.Errorf("%d) accepted %q.", i, tests[i])
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read("genic_config_does_not_exist.ini"); err == nil {
		t.Errorf("accepted a missing config file.")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Check(); err != nil {
		t.Errorf("the default configuration fails validation: %s",
			err.Error())
	}
}
