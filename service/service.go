// Package service is the caller-facing facade over package hashing. It runs
// every expensive computation on a [worker.Pool], applies an optional per
// operation timeout, and records logs, metrics and traces for each call.
//
// Nothing the service emits carries plaintext or hash material.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/instrument"
	"github.com/hasbyte1/passhash/worker"
)

const scopeName = "github.com/hasbyte1/passhash/service"

// Operation names used in span names and the "op" metric attribute.
const (
	OpHash    = "hash"
	OpVerify  = "verify"
	OpRehash  = "rehash"
	OpInspect = "inspect"
)

// ErrMissingDependency is returned by [New] when a required collaborator is nil.
var ErrMissingDependency = errors.New("service: missing dependency")

// Options configures a [Service]. The zero value is valid.
type Options struct {
	// Logger receives operation logs. The zero value discards them.
	Logger zerolog.Logger

	// Instrumentation provides the tracer and meter. Nil selects noop providers.
	Instrumentation instrument.Instrumentation

	// Timeout bounds how long a caller waits for one hash or verification.
	// The computation itself is never interrupted. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
}

// Inspection describes a stored hash without verifying it.
type Inspection struct {
	Info        hashing.HashInfo
	NeedsRehash bool
}

// Service hashes and verifies plaintext off the caller's goroutine.
//
// Service is safe for concurrent use.
type Service struct {
	manager *hashing.Manager
	pool    *worker.Pool
	timeout time.Duration

	log      zerolog.Logger
	tracer   trace.Tracer
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

// costHasher is satisfied by drivers that accept a per-call cost.
type costHasher interface {
	MakeCost(plaintext string, cost int) (string, error)
}

// New builds a Service over manager and pool.
func New(manager *hashing.Manager, pool *worker.Pool, opts Options) (*Service, error) {
	if manager == nil {
		return nil, fmt.Errorf("%w: hashing manager", ErrMissingDependency)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: worker pool", ErrMissingDependency)
	}

	ins := opts.Instrumentation
	if ins == nil {
		ins = instrument.NewNoop()
	}
	meter := ins.Meter(scopeName)

	ops, err := meter.Int64Counter("passhash.operations",
		metric.WithDescription("Number of hashing operations by outcome"))
	if err != nil {
		return nil, fmt.Errorf("service: create operations counter: %w", err)
	}
	duration, err := meter.Float64Histogram("passhash.duration",
		metric.WithDescription("Time callers waited for a hashing operation"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("service: create duration histogram: %w", err)
	}

	return &Service{
		manager:  manager,
		pool:     pool,
		timeout:  opts.Timeout,
		log:      opts.Logger.With().Str("component", "service").Logger(),
		tracer:   ins.Tracer(scopeName),
		ops:      ops,
		duration: duration,
	}, nil
}

// Hash hashes plaintext with a fresh salt.
//
// A cost of zero uses the manager's default driver and its configured
// parameters. A non-zero cost selects the bcrypt driver at that cost and is
// validated against [hashing.MinCost] and [hashing.MaxCost].
func (s *Service) Hash(ctx context.Context, plaintext string, cost int) (string, error) {
	ctx, span := s.tracer.Start(ctx, OpHash)
	defer span.End()
	start := time.Now()

	hash, err := runJob(ctx, s, func() (string, error) {
		return s.make(plaintext, cost)
	})
	s.finish(ctx, span, OpHash, outcomeOf(err), err, start)
	return hash, err
}

func (s *Service) make(plaintext string, cost int) (string, error) {
	if cost == 0 {
		return s.manager.Make(plaintext)
	}
	h, err := s.manager.Driver(hashing.DriverBcrypt)
	if err != nil {
		return "", err
	}
	ch, ok := h.(costHasher)
	if !ok {
		return "", fmt.Errorf("%w: bcrypt driver does not accept a per-call cost", hashing.ErrInvalidOption)
	}
	return ch.MakeCost(plaintext, cost)
}

// Verify reports whether plaintext matches encoded. A malformed or foreign
// hash is a mismatch. The error is non-nil only when the caller's context
// ended, the timeout elapsed, or the pool is closed.
func (s *Service) Verify(ctx context.Context, plaintext, encoded string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, OpVerify)
	defer span.End()
	start := time.Now()

	match, err := s.verify(ctx, plaintext, encoded)
	s.finish(ctx, span, OpVerify, verifyOutcome(match, err), err, start)
	return match, err
}

func (s *Service) verify(ctx context.Context, plaintext, encoded string) (bool, error) {
	return runJob(ctx, s, func() (bool, error) {
		return s.manager.Verify(plaintext, encoded), nil
	})
}

// VerifyAndRehash verifies plaintext against encoded and, on a match, returns
// a fresh hash when encoded was produced by another driver or with other
// parameters than the current default. rehashed is empty when no upgrade is
// needed or the upgrade could not be produced.
func (s *Service) VerifyAndRehash(ctx context.Context, plaintext, encoded string) (match bool, rehashed string, err error) {
	ctx, span := s.tracer.Start(ctx, OpRehash)
	defer span.End()
	start := time.Now()

	match, err = s.verify(ctx, plaintext, encoded)
	if err != nil || !match {
		s.finish(ctx, span, OpRehash, verifyOutcome(match, err), err, start)
		return match, "", err
	}

	needs, nerr := s.manager.NeedsRehash(encoded)
	if nerr != nil || !needs {
		s.finish(ctx, span, OpRehash, outcomeMatch, nil, start)
		return true, "", nil
	}

	rehashed, rerr := runJob(ctx, s, func() (string, error) {
		return s.manager.Make(plaintext)
	})
	if rerr != nil {
		s.log.Warn().Err(rerr).Msg("rehash after successful verification failed")
		s.finish(ctx, span, OpRehash, outcomeMatch, nil, start)
		return true, "", nil
	}
	s.finish(ctx, span, OpRehash, outcomeUpgraded, nil, start)
	return true, rehashed, nil
}

// Inspect parses encoded and reports its parameters and whether it should be
// re-hashed under the current configuration. It never verifies anything.
func (s *Service) Inspect(ctx context.Context, encoded string) (Inspection, error) {
	ctx, span := s.tracer.Start(ctx, OpInspect)
	defer span.End()
	start := time.Now()

	info, err := s.manager.Info(encoded)
	if err != nil {
		s.finish(ctx, span, OpInspect, outcomeOf(err), err, start)
		return Inspection{}, err
	}
	needs, err := s.manager.NeedsRehash(encoded)
	if err != nil {
		s.finish(ctx, span, OpInspect, outcomeOf(err), err, start)
		return Inspection{}, err
	}

	s.finish(ctx, span, OpInspect, outcomeOf(nil), nil, start)
	return Inspection{Info: info, NeedsRehash: needs}, nil
}

// NeedsRehash reports whether encoded should be re-hashed.
func (s *Service) NeedsRehash(encoded string) (bool, error) {
	return s.manager.NeedsRehash(encoded)
}

// DefaultDriver returns the driver used for new hashes.
func (s *Service) DefaultDriver() hashing.DriverName {
	return s.manager.DefaultDriver()
}

func runJob[T any](ctx context.Context, s *Service, fn func() (T, error)) (T, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return worker.Run(ctx, s.pool, fn)
}

func (s *Service) finish(ctx context.Context, span trace.Span, op, outcome string, err error, start time.Time) {
	elapsed := time.Since(start)
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	s.ops.Add(ctx, 1, attrs)
	s.duration.Record(ctx, elapsed.Seconds(), attrs)

	span.SetAttributes(attribute.String("passhash.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	var ev *zerolog.Event
	switch outcome {
	case outcomeRandomUnavailable, outcomeError:
		ev = s.log.Error().Err(err)
	case outcomeTimeout, outcomeCanceled, outcomeUnavailable:
		ev = s.log.Warn().Err(err)
	default:
		ev = s.log.Debug()
	}
	ev.Str("op", op).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("operation finished")
}
