// Package distbuild is a bounded worker pool for running a batch of
// independent jobs concurrently and collecting the first error, adapted
// from the job-channel/error-channel dispatch loop that InMAP's own
// distributed result-collection code uses (sr.Save). The RPC transport
// that loop used does not apply here — the work dispatched by this
// package is pure, in-process computation — but the channel idiom
// carries over unchanged: a fixed pool of goroutines drains an index
// channel and reports errors on a shared channel, with the caller
// collecting exactly one result per worker at the end.
package distbuild

import (
	"context"
	"runtime"
)

// WorkFunc performs the work for job index i. It must be safe to call
// concurrently with other indices, and must not touch any other job's
// output slot.
type WorkFunc func(ctx context.Context, i int) error

// Run dispatches jobs 0..n-1 to a pool of workers and waits for all of
// them to finish, returning the first error encountered (if any).
//
// Unlike sr.Save, which oversubscribes goroutines
// (runtime.GOMAXPROCS(-1)*3) because its jobs block on network I/O, the
// jobs this package runs are pure CPU-bound tree construction, so the
// pool is sized to exactly runtime.GOMAXPROCS(0): oversubscription would
// only add scheduling contention with no I/O wait to hide it behind.
//
// Run is the fallback construction backend field.Build switches to once
// the number of top-level roots is large enough that spawning one
// goroutine per root (the errgroup-based default) starts to dominate
// scheduling overhead.
func Run(ctx context.Context, n int, work WorkFunc) error {
	if n == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > n {
		numWorkers = n
	}

	jobChan := make(chan int, n)
	errChan := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func() {
			var workerErr error
			for i := range jobChan {
				if workerErr != nil {
					continue
				}
				select {
				case <-ctx.Done():
					workerErr = ctx.Err()
					continue
				default:
				}
				if err := work(ctx, i); err != nil {
					workerErr = err
				}
			}
			// Exactly one send per worker, mirroring sr.Save's
			// end-of-loop "errChan <- nil" — the caller drains
			// numWorkers messages, not one per job.
			errChan <- workerErr
		}()
	}

	for i := 0; i < n; i++ {
		jobChan <- i
	}
	close(jobChan)

	var firstErr error
	for i := 0; i < numWorkers; i++ {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
