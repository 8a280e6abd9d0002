package field

/* fft.go implements the three-dimensional unitary transform as three passes
of gonum's one-dimensional complex FFT, one along each axis. Plans are
reused through a pool keyed on the side length, since plan construction
dominates for small grids. A single plan holds scratch state and cannot be
shared between goroutines, so each worker checks one out for the duration
of its lines. */

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/phil-mansfield/genic/lib/thread"
)

var plans = planCache{ pools: map[int]*sync.Pool{ } }

type planCache struct {
	mu sync.Mutex
	pools map[int]*sync.Pool
}

func (c *planCache) pool(n int) *sync.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pools[n]
	if !ok {
		p = &sync.Pool{ New: func() interface{} {
			return fourier.NewCmplxFFT(n)
		} }
		c.pools[n] = p
	}
	return p
}

// transform runs the unitary 3d transform over data in place. data is laid
// out x-major with side length n. forward selects the real-to-Fourier
// direction.
func transform(data []complex128, n int, forward bool) {
	pool := plans.pool(n)

	// Axis strides for x, y, and z passes. A line along axis a starts at
	// base(line) and steps by stride.
	passes := []struct{ stride int; base func(line int) int } {
		{n * n, func(l int) int { return l } },
		{n, func(l int) int { return (l/n)*n*n + l%n } },
		{1, func(l int) int { return l * n } },
	}

	for _, pass := range passes {
		stride, base := pass.stride, pass.base
		thread.Split(n*n, func(lo, hi int) {
			plan := pool.Get().(*fourier.CmplxFFT)
			defer pool.Put(plan)

			in := make([]complex128, n)
			out := make([]complex128, n)
			for l := lo; l < hi; l++ {
				b := base(l)
				for i := 0; i < n; i++ {
					in[i] = data[b + i*stride]
				}

				if forward {
					plan.Coefficients(out, in)
				} else {
					plan.Sequence(out, in)
				}

				for i := 0; i < n; i++ {
					data[b + i*stride] = out[i]
				}
			}
		})
	}

	// Both directions share the 1/sqrt(N^3) normalization, which makes the
	// round trip exact and the transform unitary.
	norm := complex(1 / math.Sqrt(float64(n)*float64(n)*float64(n)), 0)
	thread.Split(len(data), func(lo, hi int) {
		for i := lo; i < hi; i++ { data[i] *= norm }
	})
}
