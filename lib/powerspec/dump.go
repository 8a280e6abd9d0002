package powerspec

/* dump.go estimates the spectrum actually realised by a Fourier-space
field and writes the five-column diagnostic file: bin lower edge, mean k in
bin, theory P(k), measured P(k), and mode count. Binning is logarithmic
with 100 bins between the fundamental and the Nyquist wavenumber.

The Jing (2005) aliasing correction is available as an opt-in: the
uncorrected estimator is the internally consistent one, since nothing in
the pipeline deposits particles with a CIC kernel. */

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/genic/lib/field"
)

// NBins is the number of logarithmic bins in spectrum estimates.
const NBins = 100

// Estimate holds a binned spectrum estimate for one field.
type Estimate struct {
	KLow []float64 // lower edge of each bin
	KMean []float64 // mean wavenumber of the modes in each bin
	Theory []float64 // binned theory spectrum in physical units
	Measured []float64 // binned measured spectrum in physical units
	Count []int // modes per bin
}

// Measure bins |delta_k|^2 of the Fourier-space field f against the theory
// spectrum ps. jing enables the Jing (2005) CIC aliasing correction on the
// measured column.
func Measure(f *field.Field, ps *PowerSpectrum, jing bool) *Estimate {
	f.CheckDomain(field.FourierSpace, "Measure()")

	g := f.Grid
	kmin, kmax := g.KMin(), g.KNyquist()
	dklog := math.Log10(kmax/kmin) / NBins
	n3 := float64(g.Cells())
	psnorm := math.Pow(g.L/(2*math.Pi), 3)

	est := &Estimate{
		KLow: make([]float64, NBins), KMean: make([]float64, NBins),
		Theory: make([]float64, NBins), Measured: make([]float64, NBins),
		Count: make([]int, NBins),
	}
	edges := floats.LogSpan(make([]float64, NBins+1), kmin, kmax)
	copy(est.KLow, edges[:NBins])

	for i := range f.Data {
		c := g.Cell(i)
		k := math.Sqrt(g.K2(c))
		if k < kmin || k >= kmax { continue }

		bin := int(math.Log10(k/kmin) / dklog)
		if bin < 0 || bin >= NBins { continue }

		re, im := real(f.Data[i]), imag(f.Data[i])
		vabs := (re*re + im*im) / n3
		if jing {
			s := math.Sin(math.Pi * k / kmax / 2)
			vabs /= 1 - 2.0/3.0*s*s
		}

		est.KMean[bin] += k
		est.Measured[bin] += vabs
		est.Theory[bin] += ps.P(k)
		est.Count[bin]++
	}

	for i := range est.Count {
		if est.Count[i] == 0 { continue }
		n := float64(est.Count[i])
		est.KMean[i] /= n
		est.Measured[i] *= psnorm / n
		est.Theory[i] *= psnorm / n
	}

	return est
}

// Write writes the spectrum estimate for f to the file fname. Empty bins
// are skipped.
func Write(fname string, f *field.Field, ps *PowerSpectrum, jing bool) error {
	est := Measure(f, ps, jing)

	out, err := os.Create(fname)
	if err != nil { return err }
	defer out.Close()

	for i := range est.Count {
		if est.Count[i] == 0 { continue }
		_, err = fmt.Fprintf(out, "%16.8g %16.8g %16.8g %16.8g %8d\n",
			est.KLow[i], est.KMean[i], est.Theory[i], est.Measured[i],
			est.Count[i])
		if err != nil { return err }
	}

	return nil
}
