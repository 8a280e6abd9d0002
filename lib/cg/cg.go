/*package cg solves linear systems Q x = b by conjugate gradients, where Q
is a symmetric positive-definite operator supplied as a function rather
than a matrix. Variants of the realization applicator need this when the
operator they must invert is not diagonal in any basis they have access
to, so the only affordable representation is matrix-vector products.

Convergence is judged on the maximum residual amplitude rather than the
norm, so the tolerance bounds the worst cell instead of an average.
*/
package cg

import (
	"fmt"

	"github.com/phil-mansfield/genic/lib/field"
)

// Operator applies a linear map to a field and returns the result as a
// new field. The map must be symmetric and positive-definite.
type Operator func(*field.Field) *field.Field

// maxResidualGrowth is the number of consecutive iterations the residual
// may grow before the solve is abandoned.
const maxResidualGrowth = 10

// Solve returns x with Q x = b, iterating until the maximum residual
// amplitude falls below rtol times the maximum amplitude of b or below
// atol, whichever comes first. At most N^3 + 1 iterations are run. The
// returned error is non-nil only when the residual grows for
// maxResidualGrowth consecutive iterations, which signals an operator
// that is not positive-definite.
func Solve(
	q Operator, b *field.Field, rtol, atol float64,
) (*field.Field, error) {
	x := field.New(b.Grid)
	x.Domain = b.Domain

	// A zero right-hand side has the zero field as its exact solution.
	scale := b.MaxAbs()
	if scale == 0 { return x, nil }

	r := b.Copy()
	r.Scale(-1)
	d := r.Copy()
	d.Scale(-1)

	dim := b.Grid.Cells()
	prev := scale
	nGrowth := 0

	for iter := 0; iter < dim+1; iter++ {
		qd := q(d)
		alpha := -real(r.InnerProduct(d)) / real(d.InnerProduct(qd))
		x.AddScaled(d, complex(alpha, 0))

		r = q(x)
		r.AddScaled(b, -1)

		norm := r.MaxAbs()
		if norm < rtol*scale || norm < atol { return x, nil }

		if norm > prev {
			nGrowth++
			if nGrowth >= maxResidualGrowth {
				return nil, fmt.Errorf("the residual grew for %d "+
					"consecutive iterations, reaching %g at iteration %d.",
					nGrowth, norm, iter)
			}
		} else {
			nGrowth = 0
		}
		prev = norm

		beta := real(r.InnerProduct(qd)) / real(d.InnerProduct(qd))
		d.Scale(complex(beta, 0))
		d.AddScaled(r, -1)
	}

	return x, nil
}
