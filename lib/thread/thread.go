/*package thread contains functions useful for multi-threading. The only
parallelism in genic is embarrassingly-parallel loops over grid cells, so the
package is small: a GOMAXPROCS setter and a blocking fan-out over an index
range.
*/
package thread

import (
	"runtime"
	"sync"

	"github.com/phil-mansfield/genic/lib/error"
)

// Set sets the number of OS threads used by parallel loops. n = -1 means
// use every core on the node.
func Set(n int) {
	if n > runtime.NumCPU() {
		error.External(error.ConfigError,
			"%d threads requested, but your system only has %d cores per "+
				"node. If you want genic to use the maximum number of threads "+
				"per node, set Threads = -1.", n, runtime.NumCPU())
	}
	if n == -1 { n = runtime.NumCPU() }

	runtime.GOMAXPROCS(n)
}

// Split calls f(lo, hi) concurrently on contiguous, disjoint subranges of
// [0, n) and blocks until every call returns. The number of subranges is
// GOMAXPROCS, or n if that is smaller. f must not panic.
func Split(n int, f func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n { workers = n }
	if workers <= 1 {
		f(0, n)
		return
	}

	wg := &sync.WaitGroup{ }
	wg.Add(workers)
	step := n / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*step, (w+1)*step
		if w == workers - 1 { hi = n }
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
