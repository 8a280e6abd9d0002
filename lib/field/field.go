/*package field implements dense complex scalar fields bound to a single
grid, along with the unitary Fourier transforms between real space and
Fourier space. Both transform directions divide by sqrt(N^3), so the inner
product of two fields is the same in either domain.

A Field knows which domain its data is currently in. Operations that only
make sense in one domain check the tag and abort with a DomainMismatch
error if it disagrees, since continuing would silently corrupt the run.
*/
package field

import (
	"math"
	"math/cmplx"

	"github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/grid"
)

// Domain tags which transform domain a Field's data is currently in.
type Domain byte

const (
	RealSpace Domain = iota
	FourierSpace
)

func (d Domain) String() string {
	if d == RealSpace { return "real" }
	return "Fourier"
}

// Field is a dense complex scalar on a Grid. The Field exclusively owns its
// Data array and shares its Grid read-only with every other field on the
// same level.
type Field struct {
	Grid *grid.Grid
	Data []complex128
	Domain Domain
}

// New returns a zeroed real-space field on the grid g.
func New(g *grid.Grid) *Field {
	return &Field{ Grid: g, Data: make([]complex128, g.Cells()),
		Domain: RealSpace }
}

// Copy returns a deep copy of f.
func (f *Field) Copy() *Field {
	out := &Field{ Grid: f.Grid, Data: make([]complex128, len(f.Data)),
		Domain: f.Domain }
	copy(out.Data, f.Data)
	return out
}

// Zero sets every element of f to zero without changing the domain.
func (f *Field) Zero() {
	for i := range f.Data { f.Data[i] = 0 }
}

// CheckDomain aborts with a DomainMismatch error if f is not in the domain
// d. op names the operation for the error message.
func (f *Field) CheckDomain(d Domain, op string) {
	if f.Domain != d {
		error.External(error.DomainMismatch,
			"%s requires a %s-space field, but the field is in %s space.",
			op, d, f.Domain)
	}
}

// ToFourier transforms f from real space to Fourier space in place.
func (f *Field) ToFourier() {
	f.CheckDomain(RealSpace, "ToFourier()")
	transform(f.Data, f.Grid.N, true)
	f.Domain = FourierSpace
}

// ToReal transforms f from Fourier space to real space in place.
func (f *Field) ToReal() {
	f.CheckDomain(FourierSpace, "ToReal()")
	transform(f.Data, f.Grid.N, false)
	f.Domain = RealSpace
}

// InnerProduct returns sum_i conj(f_i)*b_i. Both fields must be in the
// same domain; by unitarity the answer is the same in either one.
func (f *Field) InnerProduct(b *Field) complex128 {
	b.CheckDomain(f.Domain, "InnerProduct()")
	sum := complex128(0)
	for i := range f.Data {
		sum += cmplx.Conj(f.Data[i]) * b.Data[i]
	}
	return sum
}

// AddScaled updates f to f + c*b elementwise.
func (f *Field) AddScaled(b *Field, c complex128) {
	b.CheckDomain(f.Domain, "AddScaled()")
	for i := range f.Data {
		f.Data[i] += c * b.Data[i]
	}
}

// Mul multiplies f by b elementwise.
func (f *Field) Mul(b *Field) {
	b.CheckDomain(f.Domain, "Mul()")
	for i := range f.Data {
		f.Data[i] *= b.Data[i]
	}
}

// Scale multiplies every element of f by c.
func (f *Field) Scale(c complex128) {
	for i := range f.Data {
		f.Data[i] *= c
	}
}

// Norm2 returns sum_i |f_i|^2.
func (f *Field) Norm2() float64 {
	sum := 0.0
	for i := range f.Data {
		re, im := real(f.Data[i]), imag(f.Data[i])
		sum += re*re + im*im
	}
	return sum
}

// MaxAbs returns the largest modulus of any element of f.
func (f *Field) MaxAbs() float64 {
	max := 0.0
	for i := range f.Data {
		re, im := real(f.Data[i]), imag(f.Data[i])
		if x := re*re + im*im; x > max { max = x }
	}
	return math.Sqrt(max)
}
