/*package dump writes real-space fields to zstd-compressed binary files.
Dumps are a diagnostic format: a small fixed header giving the grid
geometry, followed by one compressed block of float64 cell values in
x-major order.
*/
package dump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"

	"github.com/phil-mansfield/genic/lib/field"
	"github.com/phil-mansfield/genic/lib/grid"
)

const (
	// MagicNumber is an arbitrary number at the start of every dump file
	// which should help identify when some other file is read by accident.
	MagicNumber = 0x6e1c0de0
	Version = 1

	// compressionLevel trades speed for size. Dumps are dominated by
	// float64 mantissa noise, so higher levels buy almost nothing.
	compressionLevel = 1
)

// rawHeader is a struct with the same fields as the raw header data of
// a dump file.
type rawHeader struct {
	Magic, Version uint32
	N uint32
	L float64
	Offset [3]float64
}

// WriteGrid writes the real-space field f to fname. The imaginary parts
// of the cells are dropped.
func WriteGrid(fname string, order binary.ByteOrder, f *field.Field) error {
	f.CheckDomain(field.RealSpace, "WriteGrid()")
	g := f.Grid

	file, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("the dump file %s cannot be created: %s",
			fname, err.Error())
	}
	defer file.Close()

	hd := &rawHeader{
		Magic: MagicNumber, Version: Version,
		N: uint32(g.N), L: g.L, Offset: g.Offset,
	}
	if err := binary.Write(file, order, hd); err != nil { return err }

	cells := make([]float64, len(f.Data))
	for i := range cells {
		cells[i] = real(f.Data[i])
	}

	b := &bytes.Buffer{ }
	if err := binary.Write(b, order, cells); err != nil { return err }
	buf, err := zstd.CompressLevel(nil, b.Bytes(), compressionLevel)
	if err != nil { return err }

	if err := binary.Write(file, order, int64(len(buf))); err != nil {
		return err
	}
	_, err = file.Write(buf)
	return err
}

// ReadGrid reads a dump file back into a real-space field on its own
// grid.
func ReadGrid(fname string, order binary.ByteOrder) (*field.Field, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("the dump file %s cannot be opened: %s",
			fname, err.Error())
	}
	defer file.Close()

	hd := &rawHeader{ }
	if err := binary.Read(file, order, hd); err != nil { return nil, err }
	if hd.Magic != MagicNumber {
		return nil, fmt.Errorf("%s is not a dump file: its magic number "+
			"is %x instead of %x.", fname, hd.Magic, uint32(MagicNumber))
	}
	if hd.Version != Version {
		return nil, fmt.Errorf("%s has dump version %d, but this code "+
			"reads version %d.", fname, hd.Version, Version)
	}

	nBuf := int64(0)
	if err := binary.Read(file, order, &nBuf); err != nil { return nil, err }
	buf := make([]byte, nBuf)
	if _, err := io.ReadFull(file, buf); err != nil { return nil, err }

	g := grid.NewOffset(int(hd.N), hd.L, hd.Offset)
	b, err := zstd.Decompress(nil, buf)
	if err != nil { return nil, err }
	if len(b) != 8*g.Cells() {
		return nil, fmt.Errorf("%s holds %d bytes of cell data, but its "+
			"%d^3 grid needs %d.", fname, len(b), hd.N, 8*g.Cells())
	}

	cells := make([]float64, g.Cells())
	if err := binary.Read(bytes.NewReader(b), order, cells); err != nil {
		return nil, err
	}

	f := field.New(g)
	for i := range cells {
		f.Data[i] = complex(cells[i], 0)
	}
	return f, nil
}
