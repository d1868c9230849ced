// Package worker runs expensive computations off the caller's goroutine with
// a bound on how many run at once.
//
// A hash at a realistic cost takes tens to hundreds of milliseconds of pure
// CPU. Running it directly on a request or UI goroutine stalls everything
// else scheduled there, so callers submit the work to a [Pool] and wait for
// the result:
//
//	pool := worker.New(runtime.NumCPU(), logger)
//	defer pool.Close()
//
//	hash, err := worker.Run(ctx, pool, func() (string, error) {
//	    return hashing.Hash(plaintext, cost)
//	})
//
// # Cancellation
//
// The computations the pool runs cannot be interrupted. When ctx ends while a
// job is running, [Run] returns ctx.Err() at once and the job is abandoned:
// it keeps its slot until it finishes and its result is discarded. A job
// that is still waiting for a slot when ctx ends never starts.
//
// # Shutdown
//
// [Pool.Close] rejects new work with [ErrPoolClosed] and blocks until every
// running job, abandoned or not, has returned.
package worker
