/*package powerspec maps wavenumbers to the variance of density modes. The
spectrum is built from a tabulated transfer function T(k), P(k) = A k^ns
T(k)^2, with the amplitude A normalised so that the integrated sigma(8)
matches the target sigma_8 scaled back to the starting redshift by the
linear growth factor. The per-mode values also fold in the 1/V_box factor
that converts a physical spectrum to the variance of a single discrete
mode, so multiplying white noise by sqrt(P) directly gives a correctly
normalised realization.
*/
package powerspec

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"

	"github.com/phil-mansfield/genic/lib/catio"
	"github.com/phil-mansfield/genic/lib/cosmo"
)

// MaxTableRows caps the number of rows read from a transfer function file.
const MaxTableRows = 600

// Table is a tabulated transfer function on a strictly positive, ascending
// k grid. T is normalised so its first entry is 1.
type Table struct {
	K, T []float64
}

// ReadTable reads a CAMB-style transfer function file: seven whitespace
// separated columns per row, k in h/Mpc in the first and T(k) in the
// second. Rows with non-positive k are skipped and the transfer function
// is normalised to its first kept value.
func ReadTable(fname string) (*Table, error) {
	conf := catio.DefaultConfig
	conf.MaxRows = MaxTableRows
	cols, err := catio.ReadFloatColumns(fname, []int{0, 1}, conf)
	if err != nil { return nil, err }

	tbl := &Table{ }
	for i := range cols[0] {
		if cols[0][i] <= 0 { continue }
		tbl.K = append(tbl.K, cols[0][i])
		tbl.T = append(tbl.T, cols[1][i])
	}

	if len(tbl.K) > 0 {
		t0 := tbl.T[0]
		for i := range tbl.T { tbl.T[i] /= t0 }
	}

	return tbl, nil
}

// SigmaR returns the rms linear density fluctuation in top-hat spheres of
// radius R, computed from the unnormalised spectrum k^ns T(k)^2 over the
// table's k range.
func (tbl *Table) SigmaR(R, ns float64) float64 {
	sp := &interp.NaturalCubic{ }
	if err := sp.Fit(tbl.K, tbl.T); err != nil { return 0 }

	kmin, kmax := tbl.K[0], tbl.K[len(tbl.K)-1]
	steps := 10000
	dk := (kmax - kmin) / float64(steps)

	ks := make([]float64, steps+1)
	f := make([]float64, steps+1)
	for i := range ks {
		k := kmin + float64(i)*dk
		t := sp.Predict(k)
		y := k * R
		w := (math.Sin(y) - y*math.Cos(y)) / (y * y * y)
		ks[i] = k
		f[i] = math.Pow(k, ns+2) * w * w * t * t
	}

	amp := 9 / (2 * math.Pi * math.Pi)
	return math.Sqrt(amp * integrate.Trapezoidal(ks, f))
}

// PowerSpectrum assigns a variance to every Fourier mode of a grid
// covering a box with a given side length.
type PowerSpectrum struct {
	ns float64
	normAmp float64
	kmin, kmax float64
	spline *interp.NaturalCubic
}

// New creates the mode-variance spectrum for a box with side length boxL
// at the starting redshift in p. The amplitude combines the sigma_8
// rescaling, the squared growth ratio D(aIn)/D(1), and the 1/V_box mode
// normalization.
func New(tbl *Table, p *cosmo.Params, boxL float64) (*PowerSpectrum, error) {
	sp := &interp.NaturalCubic{ }
	if err := sp.Fit(tbl.K, tbl.T); err != nil { return nil, err }

	grw := cosmo.GrowthFactor(p.OmegaM, p.OmegaL, p.AIn()) /
		cosmo.GrowthFactor(p.OmegaM, p.OmegaL, 1)
	sg8 := tbl.SigmaR(8, p.NS)
	amp := (p.Sigma8 / sg8) * (p.Sigma8 / sg8) * grw * grw

	kw := 2 * math.Pi / boxL
	norm := kw * kw * kw / math.Pow(2*math.Pi, 3)

	return &PowerSpectrum{
		ns: p.NS, normAmp: amp * norm,
		kmin: tbl.K[0], kmax: tbl.K[len(tbl.K)-1],
		spline: sp,
	}, nil
}

// P returns the variance assigned to a mode with wavenumber k. The zero
// mode has variance zero, and k outside the tabulated range is clamped to
// the nearest table edge.
func (ps *PowerSpectrum) P(k float64) float64 {
	if k == 0 { return 0 }
	if k < ps.kmin { k = ps.kmin }
	if k > ps.kmax { k = ps.kmax }

	t := ps.spline.Predict(k)
	return t * t * math.Pow(k, ps.ns) * ps.normAmp
}
