package constraint

/* covector.go builds the linear functionals that constraints act
through. Every covector is a field per level, stored in Fourier space, and
the constraint value is its inner product with the realization. */

import (
	"fmt"

	"github.com/phil-mansfield/genic/lib/cosmo"
	"github.com/phil-mansfield/genic/lib/field"
	"github.com/phil-mansfield/genic/lib/grid"
	"github.com/phil-mansfield/genic/lib/multilevel"
)

// Axis names a spatial direction for vector-valued constraints.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// newCovector returns a zeroed Fourier-space covector over ctx. The zero
// field is its own transform, so empty levels get their domain tag set
// directly.
func newCovector(ctx *multilevel.Context) *multilevel.MultiField {
	alpha := multilevel.NewMultiField(ctx)
	for _, f := range alpha.Fields {
		f.Domain = field.FourierSpace
	}
	return alpha
}

// Overdensity returns the covector whose value on a realization is the
// mean overdensity of the flagged cells. The selection must live on the
// base grid of ctx.
func Overdensity(
	ctx *multilevel.Context, sel *Selection,
) (*multilevel.MultiField, error) {
	if sel.Len() == 0 {
		return nil, fmt.Errorf("no cells are flagged.")
	}

	alpha := newCovector(ctx)
	base := alpha.Level(0)
	base.Domain = field.RealSpace

	w := complex(1/float64(sel.Len()), 0)
	for _, i := range sel.Cells {
		base.Data[i] = w
	}
	base.ToFourier()

	return alpha, nil
}

// AngularMomentum returns the covector whose value on a realization is
// the angular momentum component of the flagged cells about their
// centroid, along the given axis. The functional is built on the
// gravitational potential with a fourth-order central difference and then
// converted to act on the density through the inverse Poisson operator.
func AngularMomentum(
	ctx *multilevel.Context, sel *Selection, axis Axis, p *cosmo.Params,
) (*multilevel.MultiField, error) {
	cen, err := sel.Centroid()
	if err != nil { return nil, err }

	alpha := newCovector(ctx)
	base := alpha.Level(0)
	base.Domain = field.RealSpace

	for _, i := range sel.Cells {
		addMomentStencil(base, i, axis, cen)
	}
	base.ToFourier()

	// The stencil constrains the potential. Dividing by the Poisson
	// operator makes it a constraint on the density instead.
	g := base.Grid
	prefac := cosmo.PoissonFactor(p.OmegaM, p.AIn())
	for i := 1; i < len(base.Data); i++ {
		k2 := g.K2(g.Cell(i))
		base.Data[i] *= complex(-prefac/k2, 0)
	}
	base.Data[0] = 0

	return alpha, nil
}

// addMomentStencil accumulates the angular momentum lever arm of cell i
// into f: a fourth-order central difference along each of the two axes
// transverse to the chosen one, weighted by the cell's centroid-relative
// coordinate along the other. The signs give L ~ -r x grad(phi).
func addMomentStencil(f *field.Field, i int, axis Axis, cen [3]float64) {
	g := f.Grid
	x, y, z := g.Corner(i)
	rx := g.WrapDelta(x - cen[0])
	ry := g.WrapDelta(y - cen[1])
	rz := g.WrapDelta(z - cen[2])

	var d1, d2 int
	var c1, c2 float64
	switch axis {
	case X:
		d1, d2, c1, c2 = 2, 1, ry, rz
	case Y:
		d1, d2, c1, c2 = 0, 2, rz, rx
	case Z:
		d1, d2, c1, c2 = 1, 0, rx, ry
	}

	a, b := -1/(12*g.DX), 2/(3*g.DX)

	m2, m1, p1, p2 := neighbors(g, i, d1)
	f.Data[m2] += complex(c1*a, 0)
	f.Data[m1] += complex(c1*b, 0)
	f.Data[p1] -= complex(c1*b, 0)
	f.Data[p2] -= complex(c1*a, 0)

	m2, m1, p1, p2 = neighbors(g, i, d2)
	f.Data[m2] -= complex(c2*a, 0)
	f.Data[m1] -= complex(c2*b, 0)
	f.Data[p1] += complex(c2*b, 0)
	f.Data[p2] += complex(c2*a, 0)
}

// neighbors returns the linear indices of the cells at offsets -2, -1,
// +1, +2 from cell i along the given axis, wrapping at the boundary.
func neighbors(g *grid.Grid, i, axis int) (m2, m1, p1, p2 int) {
	ix, iy, iz := g.Coords(i)
	c := [3]int{ ix, iy, iz }

	at := func(off int) int {
		cc := c
		cc[axis] += off
		return g.Index(cc[0], cc[1], cc[2])
	}
	return at(-2), at(-1), at(1), at(2)
}
