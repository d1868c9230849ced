package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrPoolClosed is returned when work is submitted after [Pool.Close].
	ErrPoolClosed = errors.New("worker: pool is closed")

	// ErrPanic wraps a panic raised inside a job.
	ErrPanic = errors.New("worker: job panicked")
)

// Pool bounds the number of jobs running concurrently.
//
// Pool is safe for concurrent use. The zero value is not usable; call [New].
type Pool struct {
	sem  *semaphore.Weighted
	size int
	log  zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	pending atomic.Int64
}

// New returns a Pool that runs at most size jobs at once. A non-positive size
// selects runtime.NumCPU().
func New(size int, logger zerolog.Logger) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
		log:  logger.With().Str("component", "worker").Logger(),
	}
}

// Size returns the maximum number of concurrently running jobs.
func (p *Pool) Size() int { return p.size }

// Do runs fn on a pool goroutine and waits for it. See [Run].
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	_, err := Run(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Run waits for a free slot in p, runs fn on its own goroutine and returns
// its result.
//
// If ctx ends before a slot is free, fn never runs. If ctx ends while fn is
// running, Run returns ctx.Err() immediately; fn still runs to completion,
// holds its slot until then, and its result is dropped.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	if err := p.enter(); err != nil {
		return zero, err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.leave()
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer p.leave()
		defer p.sem.Release(1)
		defer func() {
			if rvr := recover(); rvr != nil {
				p.log.Error().
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Msg("job panicked")
				done <- result{err: fmt.Errorf("%w: %v", ErrPanic, rvr)}
			}
		}()

		val, err := fn()
		done <- result{val: val, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		p.log.Debug().Err(ctx.Err()).Msg("job abandoned by caller")
		return zero, ctx.Err()
	}
}

// enter registers a job with the wait group unless the pool is closed. The
// read lock orders every Add before the Wait in Close.
func (p *Pool) enter() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.pending.Add(1)
	return nil
}

func (p *Pool) leave() {
	p.pending.Add(-1)
	p.wg.Done()
}

// Pending returns the number of jobs running or waiting for a slot,
// including jobs their callers abandoned.
func (p *Pool) Pending() int { return int(p.pending.Load()) }

// Close stops accepting work and waits for running jobs to finish. It is
// safe to call more than once.
func (p *Pool) Close() {
	_ = p.Shutdown(context.Background())
}

// Shutdown stops accepting work and waits for running jobs until ctx ends.
// On expiry it returns ctx.Err(); the remaining jobs keep running detached
// and still release their slots when they finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: shutdown with %d jobs pending: %w", p.Pending(), ctx.Err())
	}
}
