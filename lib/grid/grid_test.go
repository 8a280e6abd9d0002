package grid

import (
	"math"
	"testing"
)

func TestCoordsIndexRoundTrip(t *testing.T) {
	g := New(8, 100.0)
	for i := 0; i < g.Cells(); i++ {
		ix, iy, iz := g.Coords(i)
		if ix < 0 || ix >= 8 || iy < 0 || iy >= 8 || iz < 0 || iz >= 8 {
			t.Fatalf("%d) coordinates (%d %d %d) out of range.", i, ix, iy, iz)
		}
		if j := g.Index(ix, iy, iz); j != i {
			t.Errorf("%d) Index(Coords(i)) = %d.", i, j)
		}
	}
}

func TestIndexWraps(t *testing.T) {
	g := New(4, 1.0)
	tests := []struct {
		ix, iy, iz int
		out int
	} {
		{0, 0, 0, 0},
		{4, 0, 0, 0},
		{-1, 0, 0, g.Index(3, 0, 0)},
		{0, -2, 5, g.Index(0, 2, 1)},
	}

	for i := range tests {
		test := tests[i]
		out := g.Index(test.ix, test.iy, test.iz)
		if out != test.out {
			t.Errorf("%d) Index(%d %d %d) = %d, expected %d.",
				i, test.ix, test.iy, test.iz, out, test.out)
		}
	}
}

func TestFourierIndex(t *testing.T) {
	g := New(8, 1.0)
	in := []int{0, 1, 2, 3, 4, 5, 6, 7}
	out := []int{0, 1, 2, 3, -4, -3, -2, -1}
	for i := range in {
		if k := g.FourierIndex(in[i]); k != out[i] {
			t.Errorf("%d) FourierIndex(%d) = %d, expected %d.",
				i, in[i], k, out[i])
		}
	}
}

func TestK(t *testing.T) {
	g := New(8, 100.0)
	kw := 2 * math.Pi / 100.0

	c := g.Cell(g.Index(1, 0, 7))
	kx, ky, kz := g.K(c)
	if math.Abs(kx-kw) > 1e-15 || ky != 0 || math.Abs(kz+kw) > 1e-15 {
		t.Errorf("K(1,0,7) = (%g %g %g), expected (%g 0 %g).",
			kx, ky, kz, kw, -kw)
	}

	if k2 := g.K2(c); math.Abs(k2-2*kw*kw) > 1e-15 {
		t.Errorf("K2 = %g, expected %g.", k2, 2*kw*kw)
	}
}

func TestWrapDelta(t *testing.T) {
	g := New(8, 100.0)
	tests := []struct{ in, out float64 } {
		{0, 0},
		{30, 30},
		{-30, -30},
		{80, -20},
		{-80, 20},
		{50, 50},
		{-50, 50},
	}

	for i := range tests {
		if out := g.WrapDelta(tests[i].in); math.Abs(out-tests[i].out) > 1e-13 {
			t.Errorf("%d) WrapDelta(%g) = %g, expected %g.",
				i, tests[i].in, out, tests[i].out)
		}
	}
}

func TestWrap(t *testing.T) {
	g := New(8, 100.0)
	tests := []struct{ in, out float64 } {
		{0, 0}, {99, 99}, {100, 0}, {130, 30}, {-20, 80},
	}
	for i := range tests {
		if out := g.Wrap(tests[i].in); math.Abs(out-tests[i].out) > 1e-13 {
			t.Errorf("%d) Wrap(%g) = %g, expected %g.",
				i, tests[i].in, out, tests[i].out)
		}
	}
}

func TestOffsetGeometry(t *testing.T) {
	g := NewOffset(32, 25.0, [3]float64{12.5, 12.5, 12.5})
	if g.DX != 25.0/32 {
		t.Errorf("DX = %g, expected %g.", g.DX, 25.0/32)
	}

	x, y, z := g.Corner(0)
	if x != 12.5 || y != 12.5 || z != 12.5 {
		t.Errorf("Corner(0) = (%g %g %g), expected (12.5 12.5 12.5).", x, y, z)
	}

	if !g.Contains(13, 13, 13) || g.Contains(40, 13, 13) {
		t.Errorf("Contains gave the wrong footprint test.")
	}
}
