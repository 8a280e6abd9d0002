/*package catio reads the small whitespace-separated text files that genic
consumes: transfer function tables and particle-ID lists. Files are read in
one pass with a line cap so a malformed file cannot exhaust memory.
*/
package catio

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// TextConfig contains information neccessary for parsing text tables.
type TextConfig struct {
	Comment byte // Character used to start comments.
	SkipLines int // Number of lines to skip at the start of the file.
	MaxRows int // Largest number of rows that will be read.
	MaxLineSize int // Largest possible line size.
}

// DefaultConfig is a TextConfig instance which can read the text files
// written by CAMB and by standard halo finders.
var DefaultConfig = TextConfig{
	Comment: '#',
	SkipLines: 0,
	MaxRows: 1<<20,
	MaxLineSize: 1<<16,
}

// ReadFloatColumns reads the given zero-indexed columns from the file fname
// and returns one []float64 per column. Blank lines and comment lines are
// skipped. Rows with no field at the largest requested column index are an
// error.
func ReadFloatColumns(
	fname string, columns []int, config ...TextConfig,
) ([][]float64, error) {
	conf := DefaultConfig
	if len(config) > 0 { conf = config[0] }

	out := make([][]float64, len(columns))
	maxCol := 0
	for _, c := range columns {
		if c > maxCol { maxCol = c }
	}

	err := scanLines(fname, conf, func(fields []string) error {
		if len(fields) <= maxCol {
			return &ColumnError{ fname, maxCol + 1, len(fields) }
		}
		for i, c := range columns {
			x, err := strconv.ParseFloat(fields[c], 64)
			if err != nil { return err }
			out[i] = append(out[i], x)
		}
		return nil
	})
	if err != nil { return nil, err }

	return out, nil
}

// ReadInts reads a file containing one integer per line and returns the
// integers in file order.
func ReadInts(fname string, config ...TextConfig) ([]int, error) {
	conf := DefaultConfig
	if len(config) > 0 { conf = config[0] }

	out := []int{ }
	err := scanLines(fname, conf, func(fields []string) error {
		x, err := strconv.Atoi(fields[0])
		if err != nil { return err }
		out = append(out, x)
		return nil
	})
	if err != nil { return nil, err }

	return out, nil
}

// ColumnError reports a row with too few columns.
type ColumnError struct {
	FileName string
	Want, Got int
}

func (e *ColumnError) Error() string {
	return "the file " + e.FileName + " needs at least " +
		strconv.Itoa(e.Want) + " columns, but a row only has " +
		strconv.Itoa(e.Got) + "."
}

// scanLines runs f once per non-empty, non-comment line, passing the line's
// whitespace-separated fields. Scanning stops at EOF or at conf.MaxRows rows.
func scanLines(
	fname string, conf TextConfig, f func(fields []string) error,
) error {
	file, err := os.Open(fname)
	if err != nil { return err }
	defer file.Close()

	scan := bufio.NewScanner(file)
	scan.Buffer(make([]byte, conf.MaxLineSize), conf.MaxLineSize)

	rows, lineNum := 0, 0
	for scan.Scan() && rows < conf.MaxRows {
		lineNum++
		line := scan.Text()
		if lineNum <= conf.SkipLines { continue }
		if i := strings.IndexByte(line, conf.Comment); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 { continue }

		if err := f(fields); err != nil { return err }
		rows++
	}

	return scan.Err()
}
