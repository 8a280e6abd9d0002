package catio

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/phil-mansfield/genic/lib/eq"
)

func writeTemp(t *testing.T, text string) string {
	dir, err := ioutil.TempDir("", "catio_test")
	if err != nil { t.Fatal(err.Error()) }
	t.Cleanup(func() { os.RemoveAll(dir) })

	fname := path.Join(dir, "table.txt")
	err = ioutil.WriteFile(fname, []byte(text), 0644)
	if err != nil { t.Fatal(err.Error()) }

	return fname
}

func TestReadFloatColumns(t *testing.T) {
	tests := []struct{
		text string
		columns []int
		out [][]float64
	} {
		{"1 10\n2 20\n3 30\n", []int{0, 1},
			[][]float64{{1, 2, 3}, {10, 20, 30}}},
		{"# header\n1 10 100\n\n2 20 200\n", []int{2},
			[][]float64{{100, 200}}},
		{"1 10 # trailing\n2 20\n", []int{1}, [][]float64{{10, 20}}},
		{"0.1 0.5 1 2 3 4 5\n0.2 0.4 1 2 3 4 5\n", []int{0, 1},
			[][]float64{{0.1, 0.2}, {0.5, 0.4}}},
	}

	for i := range tests {
		test := tests[i]
		fname := writeTemp(t, test.text)
		out, err := ReadFloatColumns(fname, test.columns)
		if err != nil {
			t.Errorf("%d) got read error: %s", i, err.Error())
			continue
		} else if len(out) != len(test.out) {
			t.Errorf("%d) expected %d columns, got %d.",
				i, len(test.out), len(out))
			continue
		}
		for j := range out {
			if !eq.Float64s(out[j], test.out[j]) {
				t.Errorf("%d) column %d: expected %v, got %v.",
					i, j, test.out[j], out[j])
			}
		}
	}
}

func TestReadFloatColumnsTooFewColumns(t *testing.T) {
	fname := writeTemp(t, "1 10\n2\n")
	_, err := ReadFloatColumns(fname, []int{0, 1})
	if err == nil {
		t.Errorf("expected error for row with missing column")
	}
}

func TestReadInts(t *testing.T) {
	tests := []struct{
		text string
		out []int
	} {
		{"", []int{}},
		{"5\n", []int{5}},
		{"3\n1\n4\n1\n", []int{3, 1, 4, 1}},
		{"# ids\n8\n9\n", []int{8, 9}},
	}

	for i := range tests {
		test := tests[i]
		fname := writeTemp(t, test.text)
		out, err := ReadInts(fname)
		if err != nil {
			t.Errorf("%d) got read error: %s", i, err.Error())
		} else if !eq.Ints(out, test.out) {
			t.Errorf("%d) expected %v, got %v.", i, test.out, out)
		}
	}
}

func TestReadIntsMaxRows(t *testing.T) {
	fname := writeTemp(t, "1\n2\n3\n4\n")
	conf := DefaultConfig
	conf.MaxRows = 2
	out, err := ReadInts(fname, conf)
	if err != nil {
		t.Fatalf("got read error: %s", err.Error())
	} else if !eq.Ints(out, []int{1, 2}) {
		t.Errorf("expected %v, got %v.", []int{1, 2}, out)
	}
}
