package powerspec

import (
	"io/ioutil"
	"math"
	"os"
	"path"
	"testing"

	"github.com/phil-mansfield/genic/lib/cosmo"
	"github.com/phil-mansfield/genic/lib/eq"
)

// flatTable returns a table with T(k) = 1 over a wide k range.
func flatTable() *Table {
	tbl := &Table{ }
	for lk := -3.0; lk <= 2.0; lk += 0.05 {
		tbl.K = append(tbl.K, math.Pow(10, lk))
		tbl.T = append(tbl.T, 1.0)
	}
	return tbl
}

func testParams() *cosmo.Params {
	return &cosmo.Params{
		OmegaM: 0.3, OmegaL: 0.7, Sigma8: 0.8, NS: 0.96,
		H100: 0.7, ZIn: 99,
	}
}

func TestReadTable(t *testing.T) {
	dir, err := ioutil.TempDir("", "powerspec_test")
	if err != nil { t.Fatal(err.Error()) }
	defer os.RemoveAll(dir)

	text := "# CAMB output\n" +
		"-1.0 9.0 0 0 0 0 0\n" +
		"0.0 9.0 0 0 0 0 0\n" +
		"0.01 4.0 0 0 0 0 0\n" +
		"0.10 2.0 0 0 0 0 0\n" +
		"1.00 1.0 0 0 0 0 0\n"
	fname := path.Join(dir, "transfer.dat")
	if err := ioutil.WriteFile(fname, []byte(text), 0644); err != nil {
		t.Fatal(err.Error())
	}

	tbl, err := ReadTable(fname)
	if err != nil { t.Fatal(err.Error()) }

	if !eq.Float64s(tbl.K, []float64{0.01, 0.10, 1.00}) {
		t.Errorf("K = %v, rows with k <= 0 should be dropped.", tbl.K)
	}
	if !eq.Float64sEps(tbl.T, []float64{1.0, 0.5, 0.25}, 1e-15) {
		t.Errorf("T = %v, expected normalization to the first row.", tbl.T)
	}
}

func TestSigmaRDecreasesWithR(t *testing.T) {
	tbl := flatTable()
	s4 := tbl.SigmaR(4, 0.96)
	s8 := tbl.SigmaR(8, 0.96)
	s16 := tbl.SigmaR(16, 0.96)

	if s4 <= 0 || s8 <= 0 || s16 <= 0 {
		t.Fatalf("SigmaR gave non-positive values: %g %g %g.", s4, s8, s16)
	}
	if !(s4 > s8 && s8 > s16) {
		t.Errorf("SigmaR not decreasing: sigma(4)=%g sigma(8)=%g "+
			"sigma(16)=%g.", s4, s8, s16)
	}
}

func TestPZeroMode(t *testing.T) {
	ps, err := New(flatTable(), testParams(), 100.0)
	if err != nil { t.Fatal(err.Error()) }
	if ps.P(0) != 0 {
		t.Errorf("P(0) = %g, expected 0.", ps.P(0))
	}
}

func TestPSpectralIndexScaling(t *testing.T) {
	p := testParams()
	p.NS = 1.0
	ps, err := New(flatTable(), p, 100.0)
	if err != nil { t.Fatal(err.Error()) }

	// With T = 1 and ns = 1, P is proportional to k.
	r := ps.P(0.2) / ps.P(0.1)
	if math.Abs(r-2) > 1e-8 {
		t.Errorf("P(0.2)/P(0.1) = %g, expected 2 for ns=1, T=1.", r)
	}
}

func TestPSigma8Scaling(t *testing.T) {
	p1, p2 := testParams(), testParams()
	p2.Sigma8 = 2 * p1.Sigma8

	ps1, err := New(flatTable(), p1, 100.0)
	if err != nil { t.Fatal(err.Error()) }
	ps2, err := New(flatTable(), p2, 100.0)
	if err != nil { t.Fatal(err.Error()) }

	r := ps2.P(0.1) / ps1.P(0.1)
	if math.Abs(r-4) > 1e-10 {
		t.Errorf("doubling sigma8 scaled P by %g, expected 4.", r)
	}
}

func TestPGrowthScaling(t *testing.T) {
	p1, p2 := testParams(), testParams()
	p1.ZIn = 0
	p2.ZIn = 99

	ps1, err := New(flatTable(), p1, 100.0)
	if err != nil { t.Fatal(err.Error()) }
	ps2, err := New(flatTable(), p2, 100.0)
	if err != nil { t.Fatal(err.Error()) }

	a := 1.0 / 100
	want := cosmo.GrowthFactor(0.3, 0.7, a) / cosmo.GrowthFactor(0.3, 0.7, 1)
	r := math.Sqrt(ps2.P(0.1) / ps1.P(0.1))
	if math.Abs(r-want) > 1e-10 {
		t.Errorf("growth suppression = %g, expected %g.", r, want)
	}
}

func TestPClampsOutsideTable(t *testing.T) {
	tbl := flatTable()
	ps, err := New(tbl, testParams(), 100.0)
	if err != nil { t.Fatal(err.Error()) }

	kmin, kmax := tbl.K[0], tbl.K[len(tbl.K)-1]
	low, high := ps.P(kmin), ps.P(kmax)
	if out := ps.P(kmin / 10); math.Abs(out-low) > 1e-12*low {
		t.Errorf("P below table = %g, expected clamp to %g.", out, low)
	}
	if out := ps.P(kmax * 10); math.Abs(out-high) > 1e-12*high {
		t.Errorf("P above table = %g, expected clamp to %g.", out, high)
	}
}
