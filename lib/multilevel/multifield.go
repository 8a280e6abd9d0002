package multilevel

/* multifield.go implements the per-level field container. The effective
density at a point is the sum over levels of each level's field after its
band filter, with coarser levels interpolated onto finer grids when a
composite is needed. */

import (
	"math"
	"math/cmplx"

	"github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/field"
	"github.com/phil-mansfield/genic/lib/random"
)

// MultiField holds one field per level of a Context. The MultiField
// exclusively owns its per-level fields and shares the Context read-only.
type MultiField struct {
	Ctx *Context
	Fields []*field.Field
}

// NewMultiField returns a MultiField with zeroed real-space fields, one
// per level of ctx.
func NewMultiField(ctx *Context) *MultiField {
	m := &MultiField{ Ctx: ctx }
	for _, lev := range ctx.Levels {
		m.Fields = append(m.Fields, field.New(lev.Grid))
	}
	return m
}

// Level returns the field on level l.
func (m *MultiField) Level(l int) *field.Field {
	return m.Fields[l]
}

// Copy returns a deep copy of m.
func (m *MultiField) Copy() *MultiField {
	out := &MultiField{ Ctx: m.Ctx }
	for _, f := range m.Fields {
		out.Fields = append(out.Fields, f.Copy())
	}
	return out
}

// Draw fills every level with white noise from the engine, leaving the
// fields in Fourier space with zeroed mean modes. Levels are drawn
// root-first, so the base grid consumes the stream first.
func (m *MultiField) Draw(e *random.Engine) {
	for _, f := range m.Fields {
		e.Fill(f)
	}
}

// ApplySpectrum multiplies every Fourier mode of level l by
// sqrt(P_l(k)), turning white noise into a realization of the prior.
func (m *MultiField) ApplySpectrum() {
	for l, f := range m.Fields {
		f.CheckDomain(field.FourierSpace, "ApplySpectrum()")
		lev := m.Ctx.Levels[l]
		for i := range f.Data {
			k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
			f.Data[i] *= complex(math.Sqrt(lev.Spec.P(k)), 0)
		}
	}
}

// EnforceExactSpectrum rescales every non-zero mode so its squared
// modulus is exactly P_l(k) N^3, preserving phases.
func (m *MultiField) EnforceExactSpectrum() {
	for l, f := range m.Fields {
		f.CheckDomain(field.FourierSpace, "EnforceExactSpectrum()")
		lev := m.Ctx.Levels[l]
		n3 := float64(lev.Grid.Cells())
		for i := range f.Data {
			mod := cmplx.Abs(f.Data[i])
			if mod == 0 { continue }
			k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
			target := math.Sqrt(lev.Spec.P(k) * n3)
			f.Data[i] *= complex(target/mod, 0)
		}
	}
}

// Chi2 returns the total chi^2 of the realization under the Gaussian
// prior: for each level, sum |a_k|^2 / P(k) over non-zero modes divided
// by the cell count, summed over levels.
func (m *MultiField) Chi2() float64 {
	total := 0.0
	for l, f := range m.Fields {
		f.CheckDomain(field.FourierSpace, "Chi2()")
		lev := m.Ctx.Levels[l]
		sum := 0.0
		for i := 1; i < len(f.Data); i++ {
			k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
			p := lev.Spec.P(k)
			if p == 0 { continue }
			re, im := real(f.Data[i]), imag(f.Data[i])
			sum += (re*re + im*im) / p
		}
		total += sum / float64(lev.Grid.Cells())
	}
	return total
}

// InnerProduct returns the sum over levels of the per-level inner
// products with o.
func (m *MultiField) InnerProduct(o *MultiField) complex128 {
	if len(m.Fields) != len(o.Fields) {
		error.Internal("InnerProduct() between MultiFields with %d and "+
			"%d levels.", len(m.Fields), len(o.Fields))
	}
	sum := complex128(0)
	for l := range m.Fields {
		sum += m.Fields[l].InnerProduct(o.Fields[l])
	}
	return sum
}

// Reverse negates every mode on every level.
func (m *MultiField) Reverse() {
	for _, f := range m.Fields {
		f.Scale(-1)
	}
}

// ReverseSmallK negates modes with 0 < k < kmax on every level and leaves
// all other modes untouched.
func (m *MultiField) ReverseSmallK(kmax float64) {
	for _, f := range m.Fields {
		f.CheckDomain(field.FourierSpace, "ReverseSmallK()")
		g := f.Grid
		for i := 1; i < len(f.Data); i++ {
			if g.K2(g.Cell(i)) < kmax*kmax {
				f.Data[i] = -f.Data[i]
			}
		}
	}
}

// ReseedSmallK redraws modes with 0 < k < kmax from the engine with the
// spectrum applied, preserving every mode at or above kmax bitwise.
func (m *MultiField) ReseedSmallK(kmax float64, e *random.Engine) {
	fresh := NewMultiField(m.Ctx)
	fresh.Draw(e)
	fresh.ApplySpectrum()

	for l, f := range m.Fields {
		f.CheckDomain(field.FourierSpace, "ReseedSmallK()")
		g := f.Grid
		for i := 1; i < len(f.Data); i++ {
			if g.K2(g.Cell(i)) < kmax*kmax {
				f.Data[i] = fresh.Fields[l].Data[i]
			}
		}
	}
}

// CombineForLevel returns the real-space composite field on level l's
// grid: level l's own band-filtered field plus every coarser level's
// band-filtered field interpolated onto l's cells.
func (m *MultiField) CombineForLevel(l int) *field.Field {
	out := m.filteredReal(l)
	for a := 0; a < l; a++ {
		coarse := m.filteredReal(a)
		addInterpolated(out, coarse)
	}
	return out
}

// filteredReal returns a real-space copy of level l's field with the
// level's band filter applied.
func (m *MultiField) filteredReal(l int) *field.Field {
	lev := m.Ctx.Levels[l]
	f := m.Fields[l].Copy()
	f.CheckDomain(field.FourierSpace, "CombineForLevel()")
	for i := range f.Data {
		k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
		f.Data[i] *= complex(lev.Filter.Eval(k), 0)
	}
	f.ToReal()
	return f
}

// addInterpolated adds the coarse real-space field, tri-linearly
// interpolated at dst's cell positions, into dst. Coordinates wrap on the
// coarse grid, which is only exact for the periodic base level; interior
// zoom cells never reach the wrap.
func addInterpolated(dst, coarse *field.Field) {
	cg := coarse.Grid
	dg := dst.Grid
	for i := range dst.Data {
		x, y, z := dg.Corner(i)
		u := (x - cg.Offset[0]) / cg.DX
		v := (y - cg.Offset[1]) / cg.DX
		w := (z - cg.Offset[2]) / cg.DX

		iu, iv, iw := int(math.Floor(u)), int(math.Floor(v)),
			int(math.Floor(w))
		fu, fv, fw := u-float64(iu), v-float64(iv), w-float64(iw)

		sum := complex128(0)
		for du := 0; du <= 1; du++ {
			wu := fu
			if du == 0 { wu = 1 - fu }
			for dv := 0; dv <= 1; dv++ {
				wv := fv
				if dv == 0 { wv = 1 - fv }
				for dw := 0; dw <= 1; dw++ {
					ww := fw
					if dw == 0 { ww = 1 - fw }
					j := cg.Index(iu+du, iv+dv, iw+dw)
					sum += complex(wu*wv*ww, 0) * coarse.Data[j]
				}
			}
		}
		dst.Data[i] += sum
	}
}
