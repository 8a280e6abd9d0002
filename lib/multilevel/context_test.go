package multilevel

import (
	"math"
	"testing"

	"github.com/phil-mansfield/genic/lib/cosmo"
	"github.com/phil-mansfield/genic/lib/grid"
	"github.com/phil-mansfield/genic/lib/powerspec"
)

func testParams() *cosmo.Params {
	return &cosmo.Params{
		OmegaM: 0.3, OmegaL: 0.7, Sigma8: 0.8, NS: 0.96,
		H100: 0.7, ZIn: 99,
	}
}

// flatSpectrum returns a spectrum with T = 1 over a wide range of k.
func flatSpectrum(t *testing.T, boxL float64) *powerspec.PowerSpectrum {
	tbl := &powerspec.Table{ }
	for lk := -3.0; lk <= 2.0; lk += 0.05 {
		tbl.K = append(tbl.K, math.Pow(10, lk))
		tbl.T = append(tbl.T, 1.0)
	}
	ps, err := powerspec.New(tbl, testParams(), boxL)
	if err != nil { t.Fatal(err.Error()) }
	return ps
}

func TestAddLevelGeometry(t *testing.T) {
	ps := flatSpectrum(t, 100.0)
	ctx := NewContext()

	base := grid.New(32, 100.0)
	if err := ctx.AddLevel(base, ps); err != nil {
		t.Fatalf("base level rejected: %s", err.Error())
	}

	// A factor-4 zoom with 32 cells per side covers a quarter of the box,
	// so its cell size is L/128.
	zoom := grid.NewOffset(32, 25.0, [3]float64{ 12, 12, 12 })
	if err := ctx.AddLevel(zoom, ps); err != nil {
		t.Fatalf("valid zoom rejected: %s", err.Error())
	}
	if math.Abs(zoom.DX-100.0/128) > 1e-14 {
		t.Errorf("zoom cell size = %g, expected %g.", zoom.DX, 100.0/128)
	}
	if ctx.NLevels() != 2 {
		t.Errorf("NLevels() = %d, expected 2.", ctx.NLevels())
	}
}

func TestAddLevelRejectsBadZooms(t *testing.T) {
	ps := flatSpectrum(t, 100.0)

	ctx := NewContext()
	if err := ctx.AddLevel(grid.New(32, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}

	// Does not refine the parent.
	coarse := grid.NewOffset(8, 25.0, [3]float64{ 10, 10, 10 })
	if err := ctx.AddLevel(coarse, ps); err == nil {
		t.Errorf("accepted a zoom that does not refine its parent.")
	}

	// Extends beyond the parent's footprint.
	ctx = NewContext()
	if err := ctx.AddLevel(grid.New(32, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}
	stray := grid.NewOffset(32, 25.0, [3]float64{ 90, 10, 10 })
	if err := ctx.AddLevel(stray, ps); err == nil {
		t.Errorf("accepted a zoom that leaves its parent.")
	}
}

func TestFiltersSumToOne(t *testing.T) {
	// The squared filter weights of the whole hierarchy must sum to one at
	// every wavenumber, for both two- and three-level hierarchies.
	ps := flatSpectrum(t, 100.0)

	for _, nLevels := range []int{2, 3} {
		ctx := NewContext()
		l, off := 100.0, [3]float64{ }
		for i := 0; i < nLevels; i++ {
			g := grid.NewOffset(32, l, off)
			if err := ctx.AddLevel(g, ps); err != nil {
				t.Fatal(err.Error())
			}
			off = [3]float64{ off[0] + l/4, off[1] + l/4, off[2] + l/4 }
			l /= 2
		}

		kmax := ctx.Levels[nLevels-1].Grid.KNyquist()
		for k := kmax / 1000; k < kmax; k *= 1.1 {
			sum := 0.0
			for _, lev := range ctx.Levels {
				w := lev.Filter.Eval(k)
				sum += w * w
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Fatalf("%d levels) sum of squared weights at k = %g "+
					"is %g.", nLevels, k, sum)
			}
		}
	}
}

func TestSingleLevelFilterIsUnity(t *testing.T) {
	ps := flatSpectrum(t, 100.0)
	ctx := NewContext()
	if err := ctx.AddLevel(grid.New(16, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}

	f := ctx.Levels[0].Filter
	for k := 0.01; k < 10; k *= 2 {
		if f.Eval(k) != 1 {
			t.Errorf("single-level filter at k = %g is %g, expected 1.",
				k, f.Eval(k))
		}
	}
}

func TestFilterBands(t *testing.T) {
	ps := flatSpectrum(t, 100.0)
	ctx := NewContext()
	if err := ctx.AddLevel(grid.New(32, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}
	zoom := grid.NewOffset(32, 25.0, [3]float64{ 12, 12, 12 })
	if err := ctx.AddLevel(zoom, ps); err != nil { t.Fatal(err.Error()) }

	s := SplitFrac * ctx.Levels[0].Grid.KNyquist()
	base, fine := ctx.Levels[0].Filter, ctx.Levels[1].Filter

	// Far below the split the base level owns everything.
	if w := base.Eval(s / 10); math.Abs(w-1) > 1e-12 {
		t.Errorf("base weight below the split = %g, expected 1.", w)
	}
	if w := fine.Eval(s / 10); math.Abs(w) > 1e-12 {
		t.Errorf("fine weight below the split = %g, expected 0.", w)
	}

	// Far above the split the fine level owns everything.
	if w := base.Eval(s * 2); math.Abs(w) > 1e-12 {
		t.Errorf("base weight above the split = %g, expected 0.", w)
	}
	if w := fine.Eval(s * 2); math.Abs(w-1) > 1e-12 {
		t.Errorf("fine weight above the split = %g, expected 1.", w)
	}
}
