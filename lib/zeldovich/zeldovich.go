/*package zeldovich turns a density realization into particle positions
and velocities at the starting redshift. The displacement field solves the
linearized continuity equation, div psi = -delta, which in Fourier space
is psi_k(j) = i k_j delta_k / k^2. Each cell contributes one particle,
displaced from the cell's low corner and moving along its displacement.

Velocities carry the factor H(a) sqrt(a) expected by Gadget-style
snapshot files rather than the raw peculiar velocity.
*/
package zeldovich

import (
	"math"

	"github.com/phil-mansfield/genic/lib/cosmo"
	"github.com/phil-mansfield/genic/lib/field"
)

// Particles holds the positions, velocities, and IDs of the particles
// generated from one level's density field, along with their uniform
// mass in 10^10 Msun/h.
type Particles struct {
	X, Y, Z []float64
	VX, VY, VZ []float64
	ID []int64
	Mass float64
}

// Map generates one particle per cell of the Fourier-space density delta.
// Positions wrap into the periodic box with side boxL, and particle IDs
// start at idOffset so levels can keep disjoint ID ranges.
func Map(
	delta *field.Field, boxL float64, p *cosmo.Params, idOffset int64,
) *Particles {
	delta.CheckDomain(field.FourierSpace, "Map()")

	g := delta.Grid
	n := g.Cells()
	out := &Particles{
		X: make([]float64, n), Y: make([]float64, n),
		Z: make([]float64, n),
		VX: make([]float64, n), VY: make([]float64, n),
		VZ: make([]float64, n),
		ID: make([]int64, n),
		Mass: cosmo.ParticleMass(p.OmegaM, g.DX),
	}

	a := p.AIn()
	hfac := cosmo.VelocityFactor(p.OmegaM, p.OmegaL, a)

	pos := [3][]float64{ out.X, out.Y, out.Z }
	vel := [3][]float64{ out.VX, out.VY, out.VZ }
	for axis := 0; axis < 3; axis++ {
		psi := displacement(delta, axis)
		for i := range psi.Data {
			d := real(psi.Data[i])
			x, y, z := g.Corner(i)
			corner := [3]float64{ x, y, z }
			pos[axis][i] = wrap(corner[axis]+d, boxL)
			vel[axis][i] = d * hfac
		}
	}

	for i := range out.ID {
		out.ID[i] = idOffset + int64(i)
	}
	return out
}

// displacement returns the real-space displacement component along the
// given axis.
func displacement(delta *field.Field, axis int) *field.Field {
	g := delta.Grid
	psi := field.New(g)
	psi.Domain = field.FourierSpace

	for i := 1; i < len(psi.Data); i++ {
		c := g.Cell(i)
		kx, ky, kz := g.K(c)
		k := [3]float64{ kx, ky, kz }
		k2 := kx*kx + ky*ky + kz*kz
		psi.Data[i] = delta.Data[i] * complex(0, k[axis]/k2)
	}
	psi.ToReal()
	return psi
}

func wrap(x, boxL float64) float64 {
	x = math.Mod(x, boxL)
	if x < 0 { x += boxL }
	// A tiny negative x rounds up to boxL itself above.
	if x >= boxL { x -= boxL }
	return x
}
