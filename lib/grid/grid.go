/*package grid handles the geometry of the cubic periodic lattices that
fields live on. A Grid owns no field values: every method is pure index
arithmetic or coordinate arithmetic. Cells are flattened x-major, so cell
(ix, iy, iz) has linear index (ix*N + iy)*N + iz.

Fourier indices along each axis use the signed convention [-N/2, N/2): the
first N/2 array positions map to non-negative frequencies and the rest wrap
to negative ones.
*/
package grid

import (
	"math"
)

// Grid describes a cubic lattice of N^3 cells covering a periodic box with
// side length L (comoving Mpc/h). Offset is the low corner of the grid in
// world coordinates, which is non-zero for zoom grids. Grids are immutable
// after construction.
type Grid struct {
	N int
	L float64
	DX float64
	Offset [3]float64
}

// Cell gives every per-cell quantity that loops over a grid need: the
// linear index, the integer coordinates, and the signed Fourier indices.
type Cell struct {
	Index int
	IX, IY, IZ int
	KX, KY, KZ int
}

// New creates a grid with n cells per side covering a box with side
// length l whose low corner is at the world origin.
func New(n int, l float64) *Grid {
	return NewOffset(n, l, [3]float64{ })
}

// NewOffset creates a grid with n cells per side covering a box with side
// length l whose low corner is at the world coordinate offset.
func NewOffset(n int, l float64, offset [3]float64) *Grid {
	return &Grid{ N: n, L: l, DX: l / float64(n), Offset: offset }
}

// Cells returns the total number of cells in the grid.
func (g *Grid) Cells() int {
	return g.N * g.N * g.N
}

// Coords returns the integer coordinates of the cell with linear index i.
func (g *Grid) Coords(i int) (ix, iy, iz int) {
	return (i / (g.N * g.N)) % g.N, (i / g.N) % g.N, i % g.N
}

// Index returns the linear index of the cell at integer coordinates
// (ix, iy, iz). Coordinates outside [0, N) are wrapped.
func (g *Grid) Index(ix, iy, iz int) int {
	ix, iy, iz = wrapInt(ix, g.N), wrapInt(iy, g.N), wrapInt(iz, g.N)
	return (ix*g.N + iy)*g.N + iz
}

// Cell returns the full cell description for linear index i.
func (g *Grid) Cell(i int) Cell {
	ix, iy, iz := g.Coords(i)
	return Cell{
		Index: i, IX: ix, IY: iy, IZ: iz,
		KX: g.FourierIndex(ix), KY: g.FourierIndex(iy),
		KZ: g.FourierIndex(iz),
	}
}

// FourierIndex maps the array position i in [0, N) to the signed Fourier
// index in [-N/2, N/2).
func (g *Grid) FourierIndex(i int) int {
	if i < (g.N+1)/2 { return i }
	return i - g.N
}

// K returns the wavevector of cell c in h/Mpc.
func (g *Grid) K(c Cell) (kx, ky, kz float64) {
	kw := 2 * math.Pi / g.L
	return kw * float64(c.KX), kw * float64(c.KY), kw * float64(c.KZ)
}

// K2 returns the squared wavenumber of cell c in (h/Mpc)^2.
func (g *Grid) K2(c Cell) float64 {
	kx, ky, kz := g.K(c)
	return kx*kx + ky*ky + kz*kz
}

// KNyquist returns the Nyquist wavenumber pi*N/L of the grid.
func (g *Grid) KNyquist() float64 {
	return math.Pi * float64(g.N) / g.L
}

// KMin returns the fundamental wavenumber 2*pi/L of the grid.
func (g *Grid) KMin() float64 {
	return 2 * math.Pi / g.L
}

// Corner returns the world coordinates of the low corner of cell i.
func (g *Grid) Corner(i int) (x, y, z float64) {
	ix, iy, iz := g.Coords(i)
	return g.Offset[0] + float64(ix)*g.DX,
		g.Offset[1] + float64(iy)*g.DX,
		g.Offset[2] + float64(iz)*g.DX
}

// Centre returns the world coordinates of the centre of cell i.
func (g *Grid) Centre(i int) (x, y, z float64) {
	x, y, z = g.Corner(i)
	return x + g.DX/2, y + g.DX/2, z + g.DX/2
}

// WrapDelta maps the coordinate difference d into (-L/2, L/2] under the
// periodic boundary.
func (g *Grid) WrapDelta(d float64) float64 {
	for d > g.L/2 { d -= g.L }
	for d <= -g.L/2 { d += g.L }
	return d
}

// Wrap maps the coordinate x into [0, L).
func (g *Grid) Wrap(x float64) float64 {
	x = math.Mod(x, g.L)
	if x < 0 { x += g.L }
	// A tiny negative x rounds up to L itself above.
	if x >= g.L { x -= g.L }
	return x
}

// Contains returns true if the world point (x, y, z) lies inside the grid's
// footprint. The test does not wrap: zoom footprints are resolved in the
// parent's coordinates before this is called.
func (g *Grid) Contains(x, y, z float64) bool {
	return x >= g.Offset[0] && x < g.Offset[0]+g.L &&
		y >= g.Offset[1] && y < g.Offset[1]+g.L &&
		z >= g.Offset[2] && z < g.Offset[2]+g.L
}

func wrapInt(i, n int) int {
	i %= n
	if i < 0 { i += n }
	return i
}
