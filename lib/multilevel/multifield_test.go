package multilevel

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/phil-mansfield/genic/lib/eq"
	"github.com/phil-mansfield/genic/lib/field"
	"github.com/phil-mansfield/genic/lib/grid"
	"github.com/phil-mansfield/genic/lib/random"
)

// twoLevelContext returns a base grid with a factor-4 zoom whose low
// corner sits at 12.5 along each axis.
func twoLevelContext(t *testing.T, n int) *Context {
	ps := flatSpectrum(t, 100.0)
	ctx := NewContext()
	if err := ctx.AddLevel(grid.New(n, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}
	zoom := grid.NewOffset(n, 25.0, [3]float64{ 12.5, 12.5, 12.5 })
	if err := ctx.AddLevel(zoom, ps); err != nil { t.Fatal(err.Error()) }
	return ctx
}

func TestDrawDeterminism(t *testing.T) {
	ctx := twoLevelContext(t, 8)

	a, b := NewMultiField(ctx), NewMultiField(ctx)
	a.Draw(random.New(42, random.Fourier))
	b.Draw(random.New(42, random.Fourier))

	for l := range a.Fields {
		if !eq.Complex128sEps(a.Fields[l].Data, b.Fields[l].Data, 0) {
			t.Errorf("level %d) identical seeds gave different fields.", l)
		}
	}
}

func TestEnforceExactSpectrum(t *testing.T) {
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	m.Draw(random.New(7, random.Fourier))
	m.ApplySpectrum()
	m.EnforceExactSpectrum()

	for l, f := range m.Fields {
		lev := ctx.Levels[l]
		n3 := float64(lev.Grid.Cells())
		for i := 1; i < len(f.Data); i++ {
			k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
			want := lev.Spec.P(k) * n3
			got := real(f.Data[i])*real(f.Data[i]) +
				imag(f.Data[i])*imag(f.Data[i])
			if math.Abs(got-want) > 1e-8*want {
				t.Fatalf("level %d cell %d) |mode|^2 = %g, expected %g.",
					l, i, got, want)
			}
		}
	}
}

func TestEnforceExactSpectrumPreservesPhases(t *testing.T) {
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	m.Draw(random.New(7, random.Fourier))
	m.ApplySpectrum()

	before := m.Copy()
	m.EnforceExactSpectrum()

	for l, f := range m.Fields {
		for i := 1; i < len(f.Data); i++ {
			if cmplx.Abs(before.Fields[l].Data[i]) == 0 { continue }
			dphase := cmplx.Phase(f.Data[i]) -
				cmplx.Phase(before.Fields[l].Data[i])
			if math.Abs(dphase) > 1e-12 {
				t.Fatalf("level %d cell %d) phase changed by %g.",
					l, i, dphase)
			}
		}
	}
}

func TestChi2(t *testing.T) {
	// After the exact spectrum is enforced every non-zero mode contributes
	// exactly N^3 to its level's sum, so chi^2 counts the non-zero modes.
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	m.Draw(random.New(11, random.Fourier))
	m.ApplySpectrum()
	m.EnforceExactSpectrum()

	want := 0.0
	for _, lev := range ctx.Levels {
		want += float64(lev.Grid.Cells() - 1)
	}
	got := m.Chi2()
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("chi^2 = %g, expected %g.", got, want)
	}
}

func TestReverseSmallK(t *testing.T) {
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	m.Draw(random.New(13, random.Fourier))
	m.ApplySpectrum()

	kmax := 0.5 * ctx.Levels[0].Grid.KNyquist()
	before := m.Copy()
	m.ReverseSmallK(kmax)

	nFlipped := 0
	for l, f := range m.Fields {
		g := f.Grid
		for i := range f.Data {
			old := before.Fields[l].Data[i]
			if i > 0 && g.K2(g.Cell(i)) < kmax*kmax {
				if f.Data[i] != -old {
					t.Fatalf("level %d cell %d) small-k mode not negated.",
						l, i)
				}
				nFlipped++
			} else if f.Data[i] != old {
				t.Fatalf("level %d cell %d) large-k mode changed.", l, i)
			}
		}
	}
	if nFlipped == 0 {
		t.Errorf("no modes below kmax = %g.", kmax)
	}
}

func TestReseedSmallK(t *testing.T) {
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	m.Draw(random.New(13, random.Fourier))
	m.ApplySpectrum()

	kmax := 0.5 * ctx.Levels[0].Grid.KNyquist()
	before := m.Copy()
	m.ReseedSmallK(kmax, random.New(101, random.Fourier))

	nChanged := 0
	for l, f := range m.Fields {
		g := f.Grid
		for i := range f.Data {
			old := before.Fields[l].Data[i]
			if i > 0 && g.K2(g.Cell(i)) < kmax*kmax {
				if f.Data[i] != old { nChanged++ }
			} else if f.Data[i] != old {
				t.Fatalf("level %d cell %d) large-k mode changed.", l, i)
			}
		}
	}
	if nChanged == 0 {
		t.Errorf("reseeding changed no modes below kmax = %g.", kmax)
	}
}

func TestInnerProductSumsLevels(t *testing.T) {
	ctx := twoLevelContext(t, 8)
	a, b := NewMultiField(ctx), NewMultiField(ctx)
	a.Draw(random.New(3, random.Fourier))
	b.Draw(random.New(4, random.Fourier))

	want := complex128(0)
	for l := range a.Fields {
		want += a.Fields[l].InnerProduct(b.Fields[l])
	}
	got := a.InnerProduct(b)
	if cmplx.Abs(got-want) > 1e-10*cmplx.Abs(want) {
		t.Errorf("InnerProduct() = %g, expected %g.", got, want)
	}
}

func TestCombineSingleLevel(t *testing.T) {
	// With one level there are no splits, so the combined field is just the
	// level's own field transformed to real space.
	ps := flatSpectrum(t, 100.0)
	ctx := NewContext()
	if err := ctx.AddLevel(grid.New(8, 100.0), ps); err != nil {
		t.Fatal(err.Error())
	}

	m := NewMultiField(ctx)
	m.Draw(random.New(5, random.Fourier))
	m.ApplySpectrum()

	want := m.Fields[0].Copy()
	want.ToReal()

	got := m.CombineForLevel(0)
	if !eq.Complex128sEps(got.Data, want.Data, 1e-10) {
		t.Errorf("single-level composite differs from the raw field.")
	}
}

func TestCombineConstantBase(t *testing.T) {
	// A base field holding only a mean mode is constant in real space, and
	// trilinear interpolation of a constant is the constant itself.
	ctx := twoLevelContext(t, 8)
	m := NewMultiField(ctx)
	for _, f := range m.Fields { f.Domain = field.FourierSpace }

	n3 := float64(ctx.Levels[0].Grid.Cells())
	m.Fields[0].Data[0] = complex(3*math.Sqrt(n3), 0)

	got := m.CombineForLevel(1)
	for i := range got.Data {
		if cmplx.Abs(got.Data[i]-3) > 1e-10 {
			t.Fatalf("cell %d) composite = %g, expected 3.", i, got.Data[i])
		}
	}
}

func TestAddInterpolatedCoincidentGrids(t *testing.T) {
	// When source and destination share a grid every interpolation point
	// lands exactly on a cell corner.
	g := grid.New(8, 100.0)
	src, dst := field.New(g), field.New(g)
	for i := range src.Data {
		src.Data[i] = complex(float64(i%17), 0)
	}

	addInterpolated(dst, src)
	if !eq.Complex128sEps(dst.Data, src.Data, 1e-13) {
		t.Errorf("interpolation onto the same grid changed values.")
	}
}
