/*package random draws the seeded Gaussian white noise that realizations
start from. A single Engine owns the generator state, so draws are
deterministic for a given seed and are never shared across goroutines.

Two drawing conventions are supported. Real-space draws fill cells with
normals of variance N^3, which leaves every Fourier mode with variance N^3
after the unitary forward transform. Fourier-space draws produce the same
per-mode variance directly, splitting it between the real and imaginary
parts and pinning the Hermitian symmetry a real field requires. A legacy
flag reverses the Fourier visitation order so that old seeds keep
reproducing the fields they were chosen for.
*/
package random

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/phil-mansfield/genic/lib/field"
)

// Mode selects the drawing convention of an Engine.
type Mode int

const (
	// Real draws white noise in real space.
	Real Mode = iota
	// Fourier draws each independent Fourier mode directly.
	Fourier
	// FourierReversed is Fourier with the mode visitation order reversed.
	FourierReversed
)

// Engine is a seeded stream of standard normals together with a drawing
// convention. It is a single-owner object: one engine per run.
type Engine struct {
	Seed uint64
	Mode Mode
	norm distuv.Normal
}

// New creates an engine with the given seed and drawing mode.
func New(seed uint64, mode Mode) *Engine {
	return &Engine{
		Seed: seed, Mode: mode,
		norm: distuv.Normal{ Mu: 0, Sigma: 1, Src: rand.NewSource(seed) },
	}
}

// Fill fills f with white noise according to the engine's mode and leaves
// f in Fourier space with a zeroed mean mode. Every mode has variance N^3.
func (e *Engine) Fill(f *field.Field) {
	switch e.Mode {
	case Real:
		e.fillReal(f)
	case Fourier:
		e.fillFourier(f, false)
	case FourierReversed:
		e.fillFourier(f, true)
	}
	f.Data[0] = 0
}

func (e *Engine) fillReal(f *field.Field) {
	f.CheckDomain(field.RealSpace, "Fill()")
	sigma := math.Sqrt(float64(f.Grid.Cells()))
	for i := range f.Data {
		f.Data[i] = complex(e.norm.Rand()*sigma, 0)
	}
	f.ToFourier()
}

// fillFourier visits every cell in linear order (or reversed), drawing the
// real and imaginary parts of each mode whose conjugate partner has not
// been visited yet. Partners get the conjugate value, and self-conjugate
// modes take the real draw at full variance.
func (e *Engine) fillFourier(f *field.Field, reversed bool) {
	f.CheckDomain(field.RealSpace, "Fill()")
	f.Domain = field.FourierSpace

	g := f.Grid
	n := g.Cells()
	sigmaPair := math.Sqrt(float64(n) / 2)
	sigmaSelf := math.Sqrt(float64(n))

	for step := 0; step < n; step++ {
		i := step
		if reversed { i = n - 1 - step }

		c := g.Cell(i)
		j := g.Index(-c.IX, -c.IY, -c.IZ)

		// Skip the partner of a mode that was already visited.
		if (!reversed && j < i) || (reversed && j > i) { continue }

		re, im := e.norm.Rand(), e.norm.Rand()
		if i == j {
			f.Data[i] = complex(re*sigmaSelf, 0)
		} else {
			f.Data[i] = complex(re*sigmaPair, im*sigmaPair)
			f.Data[j] = complex(re*sigmaPair, -im*sigmaPair)
		}
	}
}
