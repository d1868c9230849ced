package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hasbyte1/passhash/worker"
)

func newTestPool(t *testing.T, size int) *worker.Pool {
	t.Helper()
	p := worker.New(size, zerolog.Nop())
	t.Cleanup(p.Close)
	return p
}

func TestNew_DefaultSize(t *testing.T) {
	p := newTestPool(t, 0)
	if p.Size() < 1 {
		t.Errorf("Size = %d, want >= 1", p.Size())
	}
}

func TestRun_ReturnsResult(t *testing.T) {
	p := newTestPool(t, 2)
	got, err := worker.Run(context.Background(), p, func() (string, error) {
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Errorf("Run = %q, %v", got, err)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	p := newTestPool(t, 1)
	want := errors.New("boom")
	_, err := worker.Run(context.Background(), p, func() (int, error) { return 0, want })
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestDo_RecoversPanic(t *testing.T) {
	p := newTestPool(t, 1)
	err := p.Do(context.Background(), func() error { panic("bad job") })
	if !errors.Is(err, worker.ErrPanic) {
		t.Errorf("expected ErrPanic, got %v", err)
	}
	if err := p.Do(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("pool unusable after panic: %v", err)
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	const size = 3
	p := newTestPool(t, size)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func() error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > size {
		t.Errorf("peak concurrency %d exceeds pool size %d", got, size)
	}
}

func TestRun_AbandonsOnCancel(t *testing.T) {
	p := newTestPool(t, 1)
	release := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- p.Do(ctx, func() error {
			<-release
			close(finished)
			return nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}

	select {
	case <-finished:
		t.Fatal("job was interrupted or finished early")
	default:
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned job never completed")
	}
}

func TestRun_CanceledWhileWaitingNeverStarts(t *testing.T) {
	p := newTestPool(t, 1)
	block := make(chan struct{})
	go func() { _ = p.Do(context.Background(), func() error { <-block; return nil }) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	var started atomic.Bool
	err := p.Do(ctx, func() error { started.Store(true); return nil })
	close(block)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if started.Load() {
		t.Error("job started after its context expired")
	}
}

func TestClose_RejectsNewWorkAndWaits(t *testing.T) {
	p := worker.New(1, zerolog.Nop())

	release := make(chan struct{})
	var finished atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = p.Do(ctx, func() error {
			<-release
			finished.Store(true)
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a job was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-closed
	if !finished.Load() {
		t.Error("Close returned before the abandoned job finished")
	}

	if err := p.Do(context.Background(), func() error { return nil }); !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
	p.Close()
}

func TestShutdown_ReturnsAtDeadline(t *testing.T) {
	p := worker.New(1, zerolog.Nop())

	release := make(chan struct{})
	started := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = p.Do(ctx, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	cancel()

	if got := p.Pending(); got != 1 {
		t.Errorf("Pending = %d, want 1", got)
	}

	sctx, scancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer scancel()
	start := time.Now()
	err := p.Shutdown(sctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Shutdown waited %s past its deadline", elapsed)
	}
	if err := p.Do(context.Background(), func() error { return nil }); !errors.Is(err, worker.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Shutdown, got %v", err)
	}

	close(release)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if got := p.Pending(); got != 0 {
		t.Errorf("Pending = %d after drain, want 0", got)
	}
}
