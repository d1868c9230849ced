package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// closeGrace bounds resource closers once the shutdown deadline has passed.
const closeGrace = 2 * time.Second

// Run serves HTTP until ctx ends, SIGINT or SIGTERM arrives, or the listener
// fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		a.Stop(context.Background())
		return err
	}
	a.log.Info().Str("address", l.Addr().String()).Msg("http server listening")

	errCh := a.Serve(l)
	select {
	case err = <-errCh:
	case <-ctx.Done():
		a.log.Info().Msg("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	a.Stop(shutdownCtx)

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve runs the HTTP server on l. The returned channel yields the serve
// error and is then closed.
func (a *App) Serve(l net.Listener) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Serve(l)
		close(errCh)
	}()
	return errCh
}

// Stop drains in-flight requests, closes the worker pool and flushes
// telemetry, all bounded by ctx. Jobs still running when ctx ends are left
// behind. It is safe to call more than once.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Str("name", "http server").Msg("failed to close resource")
	}

	a.log.Info().Int("pending", a.pool.Pending()).Msg("waiting for hashing jobs to finish")
	if err := a.pool.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Int("abandoned", a.pool.Pending()).Msg("hashing jobs still running at shutdown deadline")
	}

	if ctx.Err() != nil {
		// The deadline went to draining; telemetry still gets a short flush.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), closeGrace)
		defer cancel()
	}
	a.closeAll(ctx)
	a.log.Info().Msg("application gracefully shutdown")
}
