package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/worker"
)

type errorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Error   map[string]string `json:"error,omitempty"`
}

// apiError is an error with a fixed status and public message.
type apiError struct {
	status  int
	code    string
	message string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

var errInternal = &apiError{status: http.StatusInternalServerError, code: "internal", message: "internal server error"}

func badRequest(msg string, cause error) error {
	return &apiError{status: http.StatusBadRequest, code: "bad_request", message: msg, cause: cause}
}

// classify maps err onto a status, code and public message. Hashing errors
// are reported with their sentinel text only, which never includes input.
func classify(err error) (int, errorResponse) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, errorResponse{Message: ae.message, Code: ae.code}
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Message: "validation failed", Code: "validation", Error: ve}
	}

	switch {
	case errors.Is(err, hashing.ErrInvalidInput):
		return http.StatusUnprocessableEntity, errorResponse{Message: hashing.ErrInvalidInput.Error(), Code: "invalid_input"}
	case errors.Is(err, hashing.ErrInvalidCostFactor):
		return http.StatusUnprocessableEntity, errorResponse{Message: hashing.ErrInvalidCostFactor.Error(), Code: "invalid_cost"}
	case errors.Is(err, hashing.ErrMalformedHash), errors.Is(err, hashing.ErrAlgorithmMismatch):
		return http.StatusUnprocessableEntity, errorResponse{Message: hashing.ErrMalformedHash.Error(), Code: "malformed_hash"}
	case errors.Is(err, hashing.ErrRandomSourceUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Message: "random source unavailable", Code: "random_unavailable"}
	case errors.Is(err, worker.ErrPoolClosed):
		return http.StatusServiceUnavailable, errorResponse{Message: "service shutting down", Code: "unavailable"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Message: "operation timed out", Code: "timeout"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorResponse{Message: "request canceled", Code: "canceled"}
	default:
		return errInternal.status, errorResponse{Message: errInternal.message, Code: errInternal.code}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, body, status)
}

func writeJSON(w http.ResponseWriter, resp any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
