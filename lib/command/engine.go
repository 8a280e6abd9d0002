package command

/* engine.go is the imperative facade the dispatcher drives. It owns the
cosmology, the grid hierarchy, the realization, the flagged-cell
selection, and the registered constraints, and runs the output pipeline
when a script finishes. */

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"path"
	"strings"

	"github.com/phil-mansfield/genic/lib/config"
	"github.com/phil-mansfield/genic/lib/constraint"
	"github.com/phil-mansfield/genic/lib/cosmo"
	"github.com/phil-mansfield/genic/lib/dump"
	g_error "github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/format"
	"github.com/phil-mansfield/genic/lib/grid"
	"github.com/phil-mansfield/genic/lib/multilevel"
	"github.com/phil-mansfield/genic/lib/powerspec"
	"github.com/phil-mansfield/genic/lib/random"
	"github.com/phil-mansfield/genic/lib/snapio"
	"github.com/phil-mansfield/genic/lib/zeldovich"
)

// Engine holds the full state of one run: cosmology, grids, the
// realization, the flagged cells, and the pending constraints. The
// dispatcher mutates it one command at a time.
type Engine struct {
	Params cosmo.Params
	Cfg *config.Config

	Table *powerspec.Table
	Spec *powerspec.PowerSpectrum

	Ctx *multilevel.Context
	Delta *multilevel.MultiField
	Ap *constraint.Applicator
	Sel *constraint.Selection

	Centre [3]float64
	centreSet bool

	seed uint64
	mode random.Mode
	seeded bool
	exact bool

	// boxL and nCells are the defaults set by the boxlength and n
	// commands, used when base_grid is called without arguments.
	boxL float64
	nCells int
}

// NewEngine returns an engine with no grids, no table, and no seed.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{ Cfg: cfg, Ctx: multilevel.NewContext() }
}

// LoadTable reads the transfer-function table at fname.
func (e *Engine) LoadTable(fname string) error {
	tbl, err := powerspec.ReadTable(fname)
	if err != nil { return g_error.Wrap(g_error.IOError, err) }
	e.Table = tbl
	return nil
}

// SetSeed stores the seed and draw mode used for the realization. Any
// existing realization is discarded and redrawn on next use.
func (e *Engine) SetSeed(seed uint64, mode random.Mode) {
	e.seed, e.mode, e.seeded = seed, mode, true
	e.Delta, e.Ap = nil, nil
}

// SetExact makes the next draw rescale every mode onto the theory
// spectrum exactly, preserving phases.
func (e *Engine) SetExact() {
	e.exact = true
	e.Delta, e.Ap = nil, nil
}

// BaseGrid creates the base level.
func (e *Engine) BaseGrid(boxL float64, n int) error {
	if e.Ctx.NLevels() > 0 {
		return g_error.New(g_error.GridError,
			"the base grid has already been created.")
	}
	if boxL <= 0 || n <= 0 {
		return g_error.New(g_error.ConfigError,
			"the base grid needs a positive box size and cell count, "+
				"not L = %g, n = %d.", boxL, n)
	}
	if e.Table == nil {
		return g_error.New(g_error.ConfigError,
			"no transfer-function table has been loaded.")
	}

	ps, err := powerspec.New(e.Table, &e.Params, boxL)
	if err != nil { return g_error.Wrap(g_error.ConfigError, err) }

	g := grid.New(n, boxL)
	if err := e.Ctx.AddLevel(g, ps); err != nil {
		return g_error.Wrap(g_error.GridError, err)
	}
	e.Spec = ps
	e.Sel = constraint.NewSelection(g)
	return nil
}

// ZoomGrid creates a nested zoom level refining the finest grid by
// factor, with n cells per side, placed so its window encloses the
// currently flagged cells. Flagged cells left outside the window are
// dropped with a warning.
func (e *Engine) ZoomGrid(factor, n int) error {
	if e.Ctx.NLevels() == 0 {
		return g_error.New(g_error.GridError,
			"no base grid exists to zoom into.")
	}
	if e.Delta != nil {
		return g_error.New(g_error.GridError,
			"all grids must be created before the realization is drawn.")
	}

	parent := e.Ctx.Levels[e.Ctx.NLevels()-1].Grid
	if factor < 2 || parent.N%factor != 0 {
		return g_error.New(g_error.ConfigError,
			"the zoom factor %d must be at least 2 and divide the "+
				"parent's %d cells per side.", factor, parent.N)
	}
	if e.Sel.Len() == 0 {
		return g_error.New(g_error.ConfigError,
			"no cells are flagged: the zoom window has nowhere to go.")
	}

	cen, err := e.Sel.Centroid()
	if err != nil { return g_error.Wrap(g_error.GridError, err) }

	// The window covers nWin parent cells per side, centred on the
	// flagged cells and clamped into the parent.
	nWin := parent.N / factor
	offset := [3]float64{ }
	for d := 0; d < 3; d++ {
		// cen averages the flagged cells' low corners; half a cell more
		// is the centre of the flagged region.
		mid := cen[d] + e.Sel.Grid.DX/2
		start := int(math.Floor((mid-parent.Offset[d])/parent.DX)) -
			nWin/2
		if start < 0 { start = 0 }
		if start > parent.N-nWin { start = parent.N - nWin }
		offset[d] = parent.Offset[d] + parent.DX*float64(start)
	}

	zoomL := parent.L / float64(factor)
	g := grid.NewOffset(n, zoomL, offset)
	if err := e.Ctx.AddLevel(g, e.Spec); err != nil {
		return g_error.Wrap(g_error.GridError, err)
	}

	kept, stray := []int{ }, 0
	for _, i := range e.Sel.Cells {
		x, y, z := e.Sel.Grid.Centre(i)
		if g.Contains(x, y, z) {
			kept = append(kept, i)
		} else {
			stray++
		}
	}
	if stray > 0 {
		g_error.Warn("StrayParticles", "%d of the %d flagged cells lie "+
			"outside the zoom window at %v and were dropped.",
			stray, e.Sel.Len(), offset)
		e.Sel.Cells = kept
	}
	return nil
}

// ensureDelta draws the realization if no draw exists yet.
func (e *Engine) ensureDelta() error {
	if e.Delta != nil { return nil }
	if e.Ctx.NLevels() == 0 {
		return g_error.New(g_error.ConfigError,
			"no base grid has been created.")
	}
	if !e.seeded {
		return g_error.New(g_error.ConfigError, "no seed has been set.")
	}

	e.Delta = multilevel.NewMultiField(e.Ctx)
	e.Delta.Draw(random.New(e.seed, e.mode))
	e.Delta.ApplySpectrum()
	if e.exact { e.Delta.EnforceExactSpectrum() }
	e.Ap = constraint.NewApplicator(e.Delta)
	return nil
}

// SetCentre stores the reference point used by the geometric selection
// commands.
func (e *Engine) SetCentre(x, y, z float64) {
	e.Centre = [3]float64{ x, y, z }
	e.centreSet = true
}

func (e *Engine) checkSelect() error {
	if e.Ctx.NLevels() == 0 {
		return g_error.New(g_error.ConfigError,
			"no base grid has been created.")
	}
	if !e.centreSet {
		return g_error.New(g_error.ConfigError,
			"no centre has been set.")
	}
	return nil
}

// SelectSphere flags the cells within radius r of the centre.
func (e *Engine) SelectSphere(r float64) error {
	if err := e.checkSelect(); err != nil { return err }
	e.Sel.SelectSphere(e.Centre[0], e.Centre[1], e.Centre[2], r)
	return nil
}

// SelectCube flags the cells within a cube of the given side around the
// centre.
func (e *Engine) SelectCube(side float64) error {
	if err := e.checkSelect(); err != nil { return err }
	e.Sel.SelectCube(e.Centre[0], e.Centre[1], e.Centre[2], side)
	return nil
}

// SelectNearest flags the single cell closest to the centre.
func (e *Engine) SelectNearest() error {
	if err := e.checkSelect(); err != nil { return err }
	e.Sel.SelectNearest(e.Centre[0], e.Centre[1], e.Centre[2])
	return nil
}

// LoadIDs replaces or extends the flagged-cell set from a particle-ID
// file.
func (e *Engine) LoadIDs(fname string, extend bool) error {
	if e.Ctx.NLevels() == 0 {
		return g_error.New(g_error.ConfigError,
			"no base grid has been created.")
	}
	var err error
	if extend {
		err = e.Sel.Append(fname)
	} else {
		err = e.Sel.Load(fname)
	}
	if err != nil { return g_error.Wrap(g_error.IOError, err) }
	return nil
}

// covector builds the named constraint covector over the flagged cells.
func (e *Engine) covector(
	name string, axis constraint.Axis, hasAxis bool,
) (*multilevel.MultiField, error) {
	switch strings.ToLower(name) {
	case "overdensity":
		if hasAxis {
			return nil, g_error.New(g_error.ConfigError,
				"the overdensity functional has no axis.")
		}
		alpha, err := constraint.Overdensity(e.Ctx, e.Sel)
		if err != nil { return nil, g_error.Wrap(g_error.ConfigError, err) }
		return alpha, nil
	case "l":
		if !hasAxis {
			return nil, g_error.New(g_error.ConfigError,
				"the angular momentum functional needs an axis "+
					"(x, y, or z).")
		}
		alpha, err := constraint.AngularMomentum(e.Ctx, e.Sel, axis,
			&e.Params)
		if err != nil { return nil, g_error.Wrap(g_error.ConfigError, err) }
		return alpha, nil
	}
	return nil, g_error.New(g_error.ConfigError,
		"the functional '%s' is not recognized. The valid functionals "+
			"are 'overdensity' and 'L'.", name)
}

// Calculate evaluates the named functional on the current realization
// and logs the value.
func (e *Engine) Calculate(
	name string, axis constraint.Axis, hasAxis bool,
) error {
	if err := e.ensureDelta(); err != nil { return err }
	alpha, err := e.covector(name, axis, hasAxis)
	if err != nil { return err }

	v := e.Ap.Value(alpha)
	if hasAxis {
		log.Printf("%s[%s] = %g", name, axisName(axis), real(v))
	} else {
		log.Printf("%s = %g", name, real(v))
	}
	return nil
}

// Constrain registers a constraint on the named functional. Relative
// targets multiply the value the realization currently attains.
func (e *Engine) Constrain(
	name string, axis constraint.Axis, hasAxis bool,
	relative bool, value float64,
) error {
	if err := e.ensureDelta(); err != nil { return err }
	alpha, err := e.covector(name, axis, hasAxis)
	if err != nil { return err }

	if relative {
		err = e.Ap.AddRelative(alpha, complex(value, 0))
	} else {
		err = e.Ap.Add(alpha, complex(value, 0))
	}
	if err != nil { return g_error.Wrap(g_error.NullCovector, err) }
	return nil
}

// ConstrainDirection registers three constraints rotating the named
// vector functional onto dir, with its magnitude scaled by renorm.
func (e *Engine) ConstrainDirection(
	name string, dir [3]float64, renorm float64,
) error {
	if err := e.ensureDelta(); err != nil { return err }
	if strings.ToLower(name) != "l" {
		return g_error.New(g_error.ConfigError,
			"the functional '%s' is not a vector. Directional "+
				"constraints only apply to 'L'.", name)
	}

	alphas := [3]*multilevel.MultiField{ }
	for d := 0; d < 3; d++ {
		alpha, err := e.covector(name, constraint.Axis(d), true)
		if err != nil { return err }
		alphas[d] = alpha
	}

	if err := e.Ap.AddDirection(alphas, dir, renorm); err != nil {
		return g_error.Wrap(g_error.NullCovector, err)
	}
	return nil
}

// Reverse flips the sign of every mode of the realization.
func (e *Engine) Reverse() error {
	if err := e.ensureDelta(); err != nil { return err }
	e.Delta.Reverse()
	return nil
}

// ReverseSmallK flips the sign of every mode with k below kmax.
func (e *Engine) ReverseSmallK(kmax float64) error {
	if err := e.ensureDelta(); err != nil { return err }
	e.Delta.ReverseSmallK(kmax)
	return nil
}

// ReseedSmallK redraws every mode with k below kmax from a new seed.
func (e *Engine) ReseedSmallK(kmax float64, seed uint64) error {
	if err := e.ensureDelta(); err != nil { return err }
	e.Delta.ReseedSmallK(kmax, random.New(seed, e.mode))
	return nil
}

func (e *Engine) checkLevel(level int) error {
	if level < 0 || level >= e.Ctx.NLevels() {
		return g_error.New(g_error.ConfigError,
			"level %d does not exist: the hierarchy has %d levels.",
			level, e.Ctx.NLevels())
	}
	return nil
}

// DumpGrid writes level's real-space composite field to a compressed
// binary dump.
func (e *Engine) DumpGrid(level int, fname string) error {
	if err := e.ensureDelta(); err != nil { return err }
	if err := e.checkLevel(level); err != nil { return err }

	f := e.Delta.CombineForLevel(level)
	if err := dump.WriteGrid(fname, binary.LittleEndian, f); err != nil {
		return g_error.Wrap(g_error.IOError, err)
	}
	return nil
}

// DumpPS writes the five-column spectrum diagnostic for level.
func (e *Engine) DumpPS(level int, fname string) error {
	if err := e.ensureDelta(); err != nil { return err }
	if err := e.checkLevel(level); err != nil { return err }

	f := e.Delta.CombineForLevel(level)
	f.ToFourier()
	if err := powerspec.Write(fname, f, e.Spec, false); err != nil {
		return g_error.Wrap(g_error.IOError, err)
	}
	return nil
}

// DumpIDs writes the flagged-cell set, one index per line.
func (e *Engine) DumpIDs(fname string) error {
	if e.Ctx.NLevels() == 0 {
		return g_error.New(g_error.ConfigError,
			"no base grid has been created.")
	}
	if err := e.Sel.Save(fname); err != nil {
		return g_error.Wrap(g_error.IOError, err)
	}
	return nil
}

// Done applies the registered constraints, maps the realization to
// particles, and writes the snapshot.
func (e *Engine) Done() error {
	if err := e.ensureDelta(); err != nil { return err }

	nCons := e.Ap.NCons()
	dchi2, err := e.Ap.Apply()
	if err != nil {
		return g_error.Wrap(g_error.DegenerateConstraints, err)
	}
	log.Printf("Applied %d constraints. Expected chi^2 increase: %g",
		nCons, dchi2)

	baseL := e.Ctx.Levels[0].Grid.L
	parts := []*zeldovich.Particles{ }
	idOffset := int64(0)
	for l := 0; l < e.Ctx.NLevels(); l++ {
		comp := e.Delta.CombineForLevel(l)
		comp.ToFourier()
		parts = append(parts,
			zeldovich.Map(comp, baseL, &e.Params, idOffset))
		idOffset += int64(e.Ctx.Levels[l].Grid.Cells())
	}

	fname, err := e.outName()
	if err != nil { return err }

	hd := &snapio.Header{
		Redshift: e.Params.ZIn, L: baseL,
		OmegaM: e.Params.OmegaM, OmegaL: e.Params.OmegaL,
		H100: e.Params.H100,
	}
	prec := snapio.Float64
	if e.Cfg.Output.Precision == "float32" { prec = snapio.Float32 }

	switch e.Cfg.Output.Format {
	case "gadget2":
		err = snapio.WriteGadget2(fname, binary.LittleEndian, hd, prec,
			parts)
	case "gadget3":
		err = snapio.WriteGadget3(fname, binary.LittleEndian, hd, prec,
			parts)
	default:
		return g_error.New(g_error.ConfigError,
			"the output format '%s' is not recognized.",
			e.Cfg.Output.Format)
	}
	if err != nil { return g_error.Wrap(g_error.IOError, err) }
	log.Printf("Wrote %d particles on %d levels to %s.",
		idOffset, e.Ctx.NLevels(), fname)

	if e.Cfg.Output.DumpPS {
		for l := 0; l < e.Ctx.NLevels(); l++ {
			psName := fmt.Sprintf("%s.ps%d", fname, l)
			if err := e.DumpPS(l, psName); err != nil { return err }
		}
	}
	return nil
}

// outName expands the configured output name pattern.
func (e *Engine) outName() (string, error) {
	vars := map[string]interface{}{
		"seed": int(e.seed), "zin": e.Params.ZIn,
	}
	name, err := format.Expand(e.Cfg.Output.Name, vars)
	if err != nil { return "", g_error.Wrap(g_error.ConfigError, err) }
	return path.Join(e.Cfg.Output.Dir, name), nil
}

func axisName(axis constraint.Axis) string {
	return [3]string{ "x", "y", "z" }[axis]
}
