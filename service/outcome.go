package service

import (
	"context"
	"errors"

	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/worker"
)

const (
	outcomeOK                = "ok"
	outcomeMatch             = "match"
	outcomeMismatch          = "mismatch"
	outcomeUpgraded          = "upgraded"
	outcomeInvalidInput      = "invalid_input"
	outcomeInvalidCost       = "invalid_cost"
	outcomeMalformedHash     = "malformed_hash"
	outcomeRandomUnavailable = "random_unavailable"
	outcomeTimeout           = "timeout"
	outcomeCanceled          = "canceled"
	outcomeUnavailable       = "unavailable"
	outcomeError             = "error"
)

// outcomeOf maps an operation error onto a low-cardinality metric label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, hashing.ErrInvalidInput):
		return outcomeInvalidInput
	case errors.Is(err, hashing.ErrInvalidCostFactor):
		return outcomeInvalidCost
	case errors.Is(err, hashing.ErrMalformedHash),
		errors.Is(err, hashing.ErrAlgorithmMismatch):
		return outcomeMalformedHash
	case errors.Is(err, hashing.ErrRandomSourceUnavailable):
		return outcomeRandomUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	case errors.Is(err, worker.ErrPoolClosed):
		return outcomeUnavailable
	default:
		return outcomeError
	}
}

func verifyOutcome(match bool, err error) string {
	switch {
	case err != nil:
		return outcomeOf(err)
	case match:
		return outcomeMatch
	default:
		return outcomeMismatch
	}
}
