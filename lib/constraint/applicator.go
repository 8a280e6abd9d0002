/*package constraint imposes linear constraints on a multi-level
realization through the Hoffman-Ribak projection. Each constraint is a
covector alpha, a target value, and the value the unmodified realization
attains. The projected realization

    delta' = delta + C alpha (alpha^T C alpha)^-1 (target - initial)

satisfies every constraint exactly while adding the smallest possible
chi^2, because the covariance C is diagonal in the Fourier basis of each
level. Constraints are applied as a single batch: the covariance matrix of
all covectors is built first, so the result does not depend on the order
constraints were registered in.
*/
package constraint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	g_error "github.com/phil-mansfield/genic/lib/error"
	"github.com/phil-mansfield/genic/lib/multilevel"
)

// condLimit is 1/sqrt(machine epsilon): beyond this the constraint
// covariance matrix is close enough to singular that the solve loses
// half its digits.
const condLimit = 1 << 26

// Constraint pairs a covector with the value the projected realization
// must attain and the value the current realization attains.
type Constraint struct {
	Alpha *multilevel.MultiField
	Target complex128
	Initial complex128
}

// Applicator accumulates constraints against a realization and applies
// them in one batch. It borrows the realization for its lifetime.
type Applicator struct {
	Delta *multilevel.MultiField
	Cons []Constraint
}

// NewApplicator returns an applicator modifying delta in place.
func NewApplicator(delta *multilevel.MultiField) *Applicator {
	return &Applicator{ Delta: delta }
}

// Value returns the value the current realization attains under alpha.
func (ap *Applicator) Value(alpha *multilevel.MultiField) complex128 {
	return alpha.InnerProduct(ap.Delta)
}

// Add registers a constraint with an absolute target value. Covectors
// with zero norm on every level constrain nothing and are rejected.
func (ap *Applicator) Add(
	alpha *multilevel.MultiField, target complex128,
) error {
	norm := 0.0
	for _, f := range alpha.Fields {
		norm += f.Norm2()
	}
	if norm == 0 {
		return fmt.Errorf("the constraint covector has zero norm on " +
			"every level.")
	}

	ap.Cons = append(ap.Cons, Constraint{
		Alpha: alpha, Target: target, Initial: ap.Value(alpha),
	})
	return nil
}

// AddRelative registers a constraint whose target is the current value
// scaled by factor.
func (ap *Applicator) AddRelative(
	alpha *multilevel.MultiField, factor complex128,
) error {
	return ap.Add(alpha, factor*ap.Value(alpha))
}

// AddDirection registers three constraints fixing the direction of the
// vector-valued functional given by one covector per axis. The magnitude
// of the current vector is preserved up to the factor renorm, and its
// direction is rotated onto dir.
func (ap *Applicator) AddDirection(
	alphas [3]*multilevel.MultiField, dir [3]float64, renorm float64,
) error {
	dirNorm := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	if dirNorm == 0 {
		return fmt.Errorf("the target direction is the zero vector.")
	}

	m := 0.0
	vals := [3]complex128{ }
	for d := 0; d < 3; d++ {
		vals[d] = ap.Value(alphas[d])
		re, im := real(vals[d]), imag(vals[d])
		m += re*re + im*im
	}
	m = math.Sqrt(m) * renorm

	for d := 0; d < 3; d++ {
		target := complex(m*dir[d]/dirNorm, 0)
		if err := ap.Add(alphas[d], target); err != nil { return err }
	}
	return nil
}

// NCons returns the number of registered constraints.
func (ap *Applicator) NCons() int {
	return len(ap.Cons)
}

// Apply projects the realization onto the subspace satisfying every
// registered constraint and returns the expected chi^2 increase. The
// constraint list is cleared afterwards. Linearly dependent covectors
// make the covariance matrix singular, which is returned as an error.
func (ap *Applicator) Apply() (deltaChi2 float64, err error) {
	nc := len(ap.Cons)
	if nc == 0 { return 0, nil }

	// beta_j = C alpha_j: multiply each covector mode by the level's
	// spectrum.
	betas := make([]*multilevel.MultiField, nc)
	for j, con := range ap.Cons {
		beta := con.Alpha.Copy()
		for l, f := range beta.Fields {
			lev := ap.Delta.Ctx.Levels[l]
			for i := range f.Data {
				k := math.Sqrt(lev.Grid.K2(lev.Grid.Cell(i)))
				f.Data[i] *= complex(lev.Spec.P(k), 0)
			}
		}
		betas[j] = beta
	}

	// The covariance matrix of the constraints is Hermitian, and real
	// because every covector comes from a real-space functional.
	cov := mat.NewSymDense(nc, nil)
	for j := 0; j < nc; j++ {
		for k := j; k < nc; k++ {
			cov.SetSym(j, k, real(ap.Cons[j].Alpha.InnerProduct(betas[k])))
		}
	}

	rhs := mat.NewVecDense(nc, nil)
	for j, con := range ap.Cons {
		rhs.SetVec(j, real(con.Target-con.Initial))
	}

	chol := &mat.Cholesky{ }
	if ok := chol.Factorize(cov); !ok {
		return 0, fmt.Errorf("the covariance matrix of the %d "+
			"constraints is singular: the covectors are linearly "+
			"dependent.", nc)
	}
	if cond := chol.Cond(); cond > condLimit {
		g_error.Warn("constraint", "The constraint covariance matrix has "+
			"condition number %.3g. The projection may lose accuracy.",
			cond)
	}

	w := mat.NewVecDense(nc, nil)
	if err := chol.SolveVecTo(w, rhs); err != nil {
		return 0, fmt.Errorf("solving the constraint system failed: %s",
			err.Error())
	}

	for j := 0; j < nc; j++ {
		c := complex(w.AtVec(j), 0)
		for l, f := range ap.Delta.Fields {
			f.AddScaled(betas[j].Fields[l], c)
		}
	}

	for j := 0; j < nc; j++ {
		deltaChi2 += rhs.AtVec(j) * w.AtVec(j)
	}
	ap.Cons = nil
	return deltaChi2, nil
}
