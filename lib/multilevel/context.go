/*package multilevel manages the hierarchy of nested grids that a zoom
realization lives on, together with the per-level spectra and the
band-splitting filters that divide frequency responsibility between a grid
and its parent.

Filters are complementary in quadrature: a split at wavenumber s assigns
the low band to the parent through a tapered low-pass L_s(k) and the high
band to the child through sqrt(1 - L_s(k)^2), so the squared filter weights
of the whole hierarchy sum to one at every wavenumber.
*/
package multilevel

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/genic/lib/grid"
	"github.com/phil-mansfield/genic/lib/powerspec"
)

// SplitFrac sets each level's split wavenumber as a fraction of the
// level's own Nyquist wavenumber.
const SplitFrac = 0.5

// taperWidth is the fractional half-width of the cosine taper around a
// split wavenumber.
const taperWidth = 0.25

// Filter is the band-pass weight W_l(k) of one level. A zero Low means no
// low-pass cutoff is applied; Highs holds one high-pass split per coarser
// level, so the squared weights of the hierarchy telescope to one.
type Filter struct {
	Low float64 // low-pass split: this level hands k above Low to a child
	Highs []float64 // high-pass splits of every coarser level
}

// lowpass is the tapered low-pass profile for a split at s, going from 1
// below s*(1-taperWidth) to 0 above s*(1+taperWidth).
func lowpass(k, s float64) float64 {
	lo, hi := s*(1-taperWidth), s*(1+taperWidth)
	if k <= lo { return 1 }
	if k >= hi { return 0 }
	t := (k - lo) / (hi - lo)
	return math.Cos(math.Pi / 2 * t)
}

// Eval returns the filter weight at wavenumber k.
func (f Filter) Eval(k float64) float64 {
	w := 1.0
	if f.Low > 0 { w *= lowpass(k, f.Low) }
	for _, s := range f.Highs {
		l := lowpass(k, s)
		w *= math.Sqrt(1 - l*l)
	}
	return w
}

// Level is one rung of the hierarchy: a grid, the spectrum assigning
// variances to its modes, and its band filter.
type Level struct {
	Grid *grid.Grid
	Spec *powerspec.PowerSpectrum
	Filter Filter
}

// Context is the ordered hierarchy of levels. Index 0 is the base grid;
// every later level is a strictly contained zoom of the one before it.
type Context struct {
	Levels []*Level
}

// NewContext returns an empty hierarchy.
func NewContext() *Context {
	return &Context{ }
}

// NLevels returns the number of levels.
func (ctx *Context) NLevels() int {
	return len(ctx.Levels)
}

// AddLevel appends a level to the hierarchy and recomputes every level's
// band filter. Zoom levels must lie entirely inside their parent's
// footprint and must refine it.
func (ctx *Context) AddLevel(
	g *grid.Grid, ps *powerspec.PowerSpectrum,
) error {
	if len(ctx.Levels) > 0 {
		parent := ctx.Levels[len(ctx.Levels)-1].Grid
		if g.DX >= parent.DX {
			return fmt.Errorf("a zoom grid must refine its parent: cell "+
				"size %g is not below the parent's %g.", g.DX, parent.DX)
		}
		lo, hi := g.Offset, [3]float64{
			g.Offset[0] + g.L, g.Offset[1] + g.L, g.Offset[2] + g.L,
		}
		if !parent.Contains(lo[0], lo[1], lo[2]) ||
			hi[0] > parent.Offset[0]+parent.L ||
			hi[1] > parent.Offset[1]+parent.L ||
			hi[2] > parent.Offset[2]+parent.L {
			return fmt.Errorf("the zoom grid at %v with side %g extends "+
				"beyond its parent.", g.Offset, g.L)
		}
	}

	ctx.Levels = append(ctx.Levels, &Level{ Grid: g, Spec: ps })

	// Recompute every filter: each split sits at a fraction of the coarser
	// level's Nyquist wavenumber.
	for l := range ctx.Levels {
		f := Filter{ }
		for j := 0; j < l; j++ {
			f.Highs = append(f.Highs,
				SplitFrac*ctx.Levels[j].Grid.KNyquist())
		}
		if l < len(ctx.Levels)-1 {
			f.Low = SplitFrac * ctx.Levels[l].Grid.KNyquist()
		}
		ctx.Levels[l].Filter = f
	}

	return nil
}
