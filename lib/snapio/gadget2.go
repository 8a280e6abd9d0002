package snapio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/phil-mansfield/genic/lib/zeldovich"
)

const gadgetHeaderSize = 256

// rawGadget2Header is a struct with the same fields as the raw header
// data of a Gadget-2 file.
type rawGadget2Header struct {
	NPart [6]uint32
	Mass [6]float64
	Time, Redshift float64
	FlagSFR, FlagFeedback uint32
	Nall [6]uint32
	FlagCooling, NumFiles uint32
	BoxSize, Omega0, OmegaLambda, HubbleParam float64
	FlagStellarAge, FlagMetals uint32
	NallHW [6]uint32
	FlagEntropyICs uint32
	Empty [60]byte
}

// rawGadget3Header extends the Gadget-2 layout with the precision and
// IC-info fields that Gadget-3 era codes read. Both layouts are 256
// bytes.
type rawGadget3Header struct {
	NPart [6]uint32
	Mass [6]float64
	Time, Redshift float64
	FlagSFR, FlagFeedback uint32
	Nall [6]uint32
	FlagCooling, NumFiles uint32
	BoxSize, Omega0, OmegaLambda, HubbleParam float64
	FlagStellarAge, FlagMetals uint32
	NallHW [6]uint32
	FlagEntropyICs uint32
	FlagDoublePrecision uint32
	FlagICInfo uint32
	LPTScalingFactor float32
	Empty [48]byte
}

// WriteGadget2 writes the particles of every level to a single Gadget-2
// snapshot as type-1 particles.
func WriteGadget2(
	fname string, order binary.ByteOrder, hd *Header, prec Precision,
	parts []*zeldovich.Particles,
) error {
	n, err := checkParticles(parts)
	if err != nil { return err }
	mass, uniform := uniformMass(parts)

	raw := &rawGadget2Header{ }
	raw.NPart[1] = uint32(n)
	raw.Nall[1] = uint32(n)
	if uniform { raw.Mass[1] = mass }
	raw.Time = 1 / (1 + hd.Redshift)
	raw.Redshift = hd.Redshift
	raw.NumFiles = 1
	raw.BoxSize = hd.L
	raw.Omega0 = hd.OmegaM
	raw.OmegaLambda = hd.OmegaL
	raw.HubbleParam = hd.H100

	return writeGadget(fname, order, raw, prec, parts, !uniform)
}

// WriteGadget3 writes the particles of every level to a single Gadget-3
// style snapshot. The data layout matches WriteGadget2, but the header
// records the block precision and flags the file as initial conditions.
func WriteGadget3(
	fname string, order binary.ByteOrder, hd *Header, prec Precision,
	parts []*zeldovich.Particles,
) error {
	n, err := checkParticles(parts)
	if err != nil { return err }
	mass, uniform := uniformMass(parts)

	raw := &rawGadget3Header{ }
	raw.NPart[1] = uint32(n)
	raw.Nall[1] = uint32(n)
	if uniform { raw.Mass[1] = mass }
	raw.Time = 1 / (1 + hd.Redshift)
	raw.Redshift = hd.Redshift
	raw.NumFiles = 1
	raw.BoxSize = hd.L
	raw.Omega0 = hd.OmegaM
	raw.OmegaLambda = hd.OmegaL
	raw.HubbleParam = hd.H100
	if prec == Float64 { raw.FlagDoublePrecision = 1 }
	raw.FlagICInfo = 1

	return writeGadget(fname, order, raw, prec, parts, !uniform)
}

// writeGadget writes the framed header and data blocks shared by both
// formats.
func writeGadget(
	fname string, order binary.ByteOrder, rawHd interface{},
	prec Precision, parts []*zeldovich.Particles, massBlock bool,
) error {
	file, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("the snapshot %s cannot be created: %s",
			fname, err.Error())
	}
	defer file.Close()

	if err := writeBlock(file, order, rawHd); err != nil { return err }

	pos := packVec(parts, prec, func(p *zeldovich.Particles) [3][]float64 {
		return [3][]float64{ p.X, p.Y, p.Z }
	})
	if err := writeBlock(file, order, pos); err != nil { return err }

	vel := packVec(parts, prec, func(p *zeldovich.Particles) [3][]float64 {
		return [3][]float64{ p.VX, p.VY, p.VZ }
	})
	if err := writeBlock(file, order, vel); err != nil { return err }

	if err := writeBlock(file, order, packIDs(parts)); err != nil {
		return err
	}

	if massBlock {
		if err := writeBlock(file, order, packMass(parts, prec)); err != nil {
			return err
		}
	}
	return nil
}

// writeBlock writes one Fortran record: a uint32 byte count, the data,
// and the byte count again.
func writeBlock(
	file *os.File, order binary.ByteOrder, data interface{},
) error {
	size := uint32(binary.Size(data))
	if err := binary.Write(file, order, size); err != nil { return err }
	if err := binary.Write(file, order, data); err != nil { return err }
	return binary.Write(file, order, size)
}

// checkParticles returns the total particle count after checking that
// the levels are internally consistent and small enough for the
// header's 32-bit counts.
func checkParticles(parts []*zeldovich.Particles) (n int64, err error) {
	for l, p := range parts {
		m := len(p.X)
		if len(p.Y) != m || len(p.Z) != m || len(p.VX) != m ||
			len(p.VY) != m || len(p.VZ) != m || len(p.ID) != m {
			return 0, fmt.Errorf("the particle arrays of level %d have "+
				"mismatched lengths.", l)
		}
		n += int64(m)
	}
	if n == 0 {
		return 0, fmt.Errorf("there are no particles to write.")
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%d particles cannot be written to a single "+
			"snapshot: the header stores 32-bit counts.", n)
	}
	if id, ok := duplicateID(parts); ok {
		return 0, fmt.Errorf("the particle ID %d occurs on more than one "+
			"level. Levels must be given disjoint ID ranges.", id)
	}
	return n, nil
}

// duplicateID tests whether any particle ID shows up multiple times.
// If so, it returns one of those IDs and true.
func duplicateID(parts []*zeldovich.Particles) (int64, bool) {
	ids := []int64{ }
	for _, p := range parts {
		ids = append(ids, p.ID...)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] { return ids[i], true }
	}
	return 0, false
}

// uniformMass returns the shared particle mass of the levels, or false
// if the levels have different masses and need a per-particle block.
func uniformMass(parts []*zeldovich.Particles) (float64, bool) {
	mass := parts[0].Mass
	for _, p := range parts {
		if p.Mass != mass { return 0, false }
	}
	return mass, true
}

// packVec interleaves one 3-vector per particle across all levels at
// the requested precision.
func packVec(parts []*zeldovich.Particles, prec Precision,
	comp func(p *zeldovich.Particles) [3][]float64,
) interface{} {
	n := 0
	for _, p := range parts { n += len(p.X) }

	if prec == Float64 {
		out := make([]float64, 0, 3*n)
		for _, p := range parts {
			v := comp(p)
			for i := range v[0] {
				out = append(out, v[0][i], v[1][i], v[2][i])
			}
		}
		return out
	}

	out := make([]float32, 0, 3*n)
	for _, p := range parts {
		v := comp(p)
		for i := range v[0] {
			out = append(out, float32(v[0][i]),
				float32(v[1][i]), float32(v[2][i]))
		}
	}
	return out
}

func packIDs(parts []*zeldovich.Particles) []int64 {
	out := []int64{ }
	for _, p := range parts {
		out = append(out, p.ID...)
	}
	return out
}

func packMass(parts []*zeldovich.Particles, prec Precision) interface{} {
	if prec == Float64 {
		out := []float64{ }
		for _, p := range parts {
			for range p.X { out = append(out, p.Mass) }
		}
		return out
	}
	out := []float32{ }
	for _, p := range parts {
		for range p.X { out = append(out, float32(p.Mass)) }
	}
	return out
}
