// Package app wires configuration, hashing, the worker pool, telemetry and the
// HTTP adapter into a runnable server.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hasbyte1/passhash/config"
	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/httpapi"
	"github.com/hasbyte1/passhash/instrument"
	"github.com/hasbyte1/passhash/service"
	"github.com/hasbyte1/passhash/worker"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns every long-lived resource of a running server.
type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	manager    *hashing.Manager
	pool       *worker.Pool
	service    *service.Service
	httpServer *http.Server
	closers    []closer
}

// NewLogger builds the process logger described by cfg, writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Format == config.FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// New builds an App from a validated configuration. version is reported as
// the telemetry service version.
// Resources acquired before a failing step are closed before New returns.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, version string) (_ *App, err error) {
	a := &App{cfg: cfg, log: logger}
	defer func() {
		if err != nil {
			a.closeAll(ctx)
		}
	}()

	ins, err := instrument.New(ctx, cfg.Telemetry.Instrument(version))
	if err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}
	a.closers = append(a.closers, closer{name: "telemetry", fn: ins.Shutdown})

	a.manager, err = hashing.NewManagerWith(hashing.DriverName(cfg.Hashing.Driver),
		cfg.Hashing.BcryptOptions(), cfg.Hashing.Argon2Options())
	if err != nil {
		return nil, fmt.Errorf("app: init hashing: %w", err)
	}

	a.pool = worker.New(cfg.Worker.PoolSize, logger)
	a.service, err = service.New(a.manager, a.pool, service.Options{
		Logger:          logger,
		Instrumentation: ins,
		Timeout:         cfg.Worker.Timeout,
	})
	if err != nil {
		return nil, err
	}

	api, err := httpapi.New(a.service, httpapi.Options{
		Logger:          logger,
		Instrumentation: ins,
		MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		APITokens:       cfg.HTTP.APITokens,
	})
	if err != nil {
		return nil, err
	}

	a.httpServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return a, nil
}

// closeAll runs the registered closers in reverse order and forgets them.
func (a *App) closeAll(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.log.Error().Err(err).Str("name", c.name).Msg("failed to close resource")
			continue
		}
		a.log.Debug().Str("name", c.name).Msg("resource closed")
	}
	a.closers = nil
}

// Manager exposes the hashing manager, mainly for reloads and tests.
func (a *App) Manager() *hashing.Manager { return a.manager }

// Pool exposes the worker pool.
func (a *App) Pool() *worker.Pool { return a.pool }

// Service exposes the hashing service.
func (a *App) Service() *service.Service { return a.service }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }
