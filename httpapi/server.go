// Package httpapi exposes the passhash service over HTTP/JSON.
//
// Routes:
//
//	POST /v1/hash     {"plaintext", "cost"?}            -> 201 {"hash"}
//	POST /v1/verify   {"plaintext", "hash", "upgrade"?} -> 200 {"match", "rehashed"?}
//	POST /v1/inspect  {"hash"}                          -> 200 {"driver", "params", "needs_rehash"}
//	GET  /healthz                                       -> 200 {"status": "ok"}
//
// When API tokens are configured, /v1 routes require "Authorization: Bearer
// <token>". Request bodies are never logged.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/hasbyte1/passhash/instrument"
	"github.com/hasbyte1/passhash/service"
)

const scopeName = "github.com/hasbyte1/passhash/httpapi"

const pathHealth = "/healthz"

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes int64 = 4 << 10

// ErrNilService is returned by [New] when no service is given.
var ErrNilService = errors.New("httpapi: nil service")

// Service is the subset of [service.Service] the handlers call.
type Service interface {
	Hash(ctx context.Context, plaintext string, cost int) (string, error)
	Verify(ctx context.Context, plaintext, encoded string) (bool, error)
	VerifyAndRehash(ctx context.Context, plaintext, encoded string) (bool, string, error)
	Inspect(ctx context.Context, encoded string) (service.Inspection, error)
}

// Options configures a [Server]. The zero value is valid.
type Options struct {
	Logger          zerolog.Logger
	Instrumentation instrument.Instrumentation

	// MaxBodyBytes caps every request body. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// CORSOrigins lists allowed cross-origin callers. Empty disables CORS.
	CORSOrigins []string

	// APITokens, when non-empty, are the bearer tokens accepted on /v1
	// routes. /healthz stays open.
	APITokens []string
}

// Server is an http.Handler serving the passhash API.
type Server struct {
	svc       Service
	validator *requestValidator
	handler   http.Handler
}

// New builds the router and middleware chain around svc.
func New(svc Service, opts Options) (*Server, error) {
	if svc == nil {
		return nil, ErrNilService
	}
	v, err := newRequestValidator()
	if err != nil {
		return nil, fmt.Errorf("httpapi: build validator: %w", err)
	}

	ins := opts.Instrumentation
	if ins == nil {
		ins = instrument.NewNoop()
	}
	meter := ins.Meter(scopeName)
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests served"))
	if err != nil {
		return nil, fmt.Errorf("httpapi: create request counter: %w", err)
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("httpapi: create latency histogram: %w", err)
	}

	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	s := &Server{svc: svc, validator: v}
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found", Code: "not_found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
		}),
	}
	s.routes(hr)

	mws := []Middleware{
		middlewareRequestID(opts.Logger.With().Str("component", "httpapi").Logger()),
		middlewareObservability(ins.Tracer(scopeName), requests, latency),
		middlewareRecoverer,
	}
	if guard := newTokenGuard(opts.APITokens); guard != nil {
		mws = append(mws, guard.authenticate(pathHealth))
	}
	mws = append(mws, middlewareMaxBody(limit))
	h := Chain(hr, mws...)
	if len(opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", HeaderRequestID},
			ExposedHeaders: []string{HeaderRequestID},
			MaxAge:         600,
		}).Handler(h)
	}
	s.handler = h
	return s, nil
}

func (s *Server) routes(hr *httprouter.Router) {
	s.handle(hr, http.MethodPost, "/v1/hash", s.hash)
	s.handle(hr, http.MethodPost, "/v1/verify", s.verify)
	s.handle(hr, http.MethodPost, "/v1/inspect", s.inspect)
	s.handle(hr, http.MethodGet, pathHealth, s.health)
}

// handlerFunc returns a JSON payload and status, or an error mapped by writeError.
type handlerFunc func(r *http.Request) (any, int, error)

func (s *Server) handle(hr *httprouter.Router, method, path string, h handlerFunc) {
	hr.Handle(method, path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		setRoute(r.Context(), path)
		resp, status, err := h(r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, resp, status)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
