package constraint

/* selection.go tracks the set of flagged cells that constraints are
defined over. Selections always refer to base-grid cells, either loaded
from particle-ID files or flagged by a geometric test around a reference
point. */

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/phil-mansfield/genic/lib/catio"
	"github.com/phil-mansfield/genic/lib/grid"
)

// Selection is a set of flagged cells on a single grid. Cell indices are
// kept sorted and unique.
type Selection struct {
	Grid *grid.Grid
	Cells []int
}

// NewSelection returns an empty selection on g.
func NewSelection(g *grid.Grid) *Selection {
	return &Selection{ Grid: g }
}

// Len returns the number of flagged cells.
func (sel *Selection) Len() int {
	return len(sel.Cells)
}

// Load replaces the selection with the cell indices listed in the file
// fname, one integer per line.
func (sel *Selection) Load(fname string) error {
	sel.Cells = nil
	return sel.Append(fname)
}

// Append adds the cell indices listed in fname to the selection.
func (sel *Selection) Append(fname string) error {
	ids, err := catio.ReadInts(fname)
	if err != nil { return err }

	for _, id := range ids {
		if id < 0 || id >= sel.Grid.Cells() {
			return fmt.Errorf("%s flags cell %d, outside the grid's %d "+
				"cells.", fname, id, sel.Grid.Cells())
		}
	}

	sel.Cells = append(sel.Cells, ids...)
	sel.dedup()
	return nil
}

// Save writes the flagged cell indices to fname, one per line, in the
// format Load reads back.
func (sel *Selection) Save(fname string) error {
	file, err := os.Create(fname)
	if err != nil { return err }
	defer file.Close()

	for _, c := range sel.Cells {
		if _, err := fmt.Fprintf(file, "%d\n", c); err != nil { return err }
	}
	return nil
}

func (sel *Selection) dedup() {
	sort.Ints(sel.Cells)
	j := 0
	for i, c := range sel.Cells {
		if i > 0 && c == sel.Cells[j-1] { continue }
		sel.Cells[j] = c
		j++
	}
	sel.Cells = sel.Cells[:j]
}

// SelectSphere replaces the selection with every cell whose centre lies
// within a wrapped distance r of the point (x, y, z).
func (sel *Selection) SelectSphere(x, y, z, r float64) {
	g := sel.Grid
	sel.Cells = nil
	for i := 0; i < g.Cells(); i++ {
		cx, cy, cz := g.Centre(i)
		dx := g.WrapDelta(cx - x)
		dy := g.WrapDelta(cy - y)
		dz := g.WrapDelta(cz - z)
		if dx*dx+dy*dy+dz*dz <= r*r {
			sel.Cells = append(sel.Cells, i)
		}
	}
}

// SelectCube replaces the selection with every cell whose centre lies
// within a wrapped cube with side length side centred on (x, y, z).
func (sel *Selection) SelectCube(x, y, z, side float64) {
	g := sel.Grid
	h := side / 2
	sel.Cells = nil
	for i := 0; i < g.Cells(); i++ {
		cx, cy, cz := g.Centre(i)
		if math.Abs(g.WrapDelta(cx-x)) <= h &&
			math.Abs(g.WrapDelta(cy-y)) <= h &&
			math.Abs(g.WrapDelta(cz-z)) <= h {
			sel.Cells = append(sel.Cells, i)
		}
	}
}

// SelectNearest replaces the selection with the single cell whose centre
// is closest to (x, y, z) under wrapping.
func (sel *Selection) SelectNearest(x, y, z float64) {
	g := sel.Grid
	best, bestR2 := 0, math.Inf(1)
	for i := 0; i < g.Cells(); i++ {
		cx, cy, cz := g.Centre(i)
		dx := g.WrapDelta(cx - x)
		dy := g.WrapDelta(cy - y)
		dz := g.WrapDelta(cz - z)
		r2 := dx*dx + dy*dy + dz*dz
		if r2 < bestR2 { best, bestR2 = i, r2 }
	}
	sel.Cells = []int{ best }
}

// Centroid returns the mean position of the flagged cells, computed with
// wrapped offsets from the first flagged cell so that selections
// straddling the periodic boundary average correctly. Selections that
// span more than half the box along any axis have no unambiguous
// centroid and are rejected.
func (sel *Selection) Centroid() ([3]float64, error) {
	if len(sel.Cells) == 0 {
		return [3]float64{ }, fmt.Errorf("the selection is empty.")
	}

	g := sel.Grid
	ax, ay, az := g.Corner(sel.Cells[0])
	anchor := [3]float64{ ax, ay, az }

	sum := [3]float64{ }
	min := [3]float64{ math.Inf(1), math.Inf(1), math.Inf(1) }
	max := [3]float64{ math.Inf(-1), math.Inf(-1), math.Inf(-1) }
	for _, i := range sel.Cells {
		x, y, z := g.Corner(i)
		for d, pos := range [3]float64{ x, y, z } {
			delta := g.WrapDelta(pos - anchor[d])
			sum[d] += delta
			if delta < min[d] { min[d] = delta }
			if delta > max[d] { max[d] = delta }
		}
	}

	out := [3]float64{ }
	for d := 0; d < 3; d++ {
		if max[d]-min[d] > g.L/2 {
			return [3]float64{ }, fmt.Errorf("the selection spans %g "+
				"along axis %d, more than half the box.", max[d]-min[d], d)
		}
		out[d] = g.Wrap(anchor[d] + sum[d]/float64(len(sel.Cells)))
	}
	return out, nil
}
