package hashing

import "errors"

// Sentinel errors returned by hashing operations.
//
// Use [errors.Is] for comparisons:
//
//	_, err := hashing.Hash(plaintext, cost)
//	if errors.Is(err, hashing.ErrInvalidCostFactor) {
//	    // cost outside [MinCost, MaxCost]
//	}
var (
	// ErrInvalidInput is returned when the plaintext is empty or longer than
	// [MaxPlaintextBytes]. Plaintext is never truncated.
	ErrInvalidInput = errors.New("hashing: invalid plaintext")

	// ErrInvalidCostFactor is returned when a bcrypt cost lies outside
	// [MinCost, MaxCost].
	ErrInvalidCostFactor = errors.New("hashing: invalid cost factor")

	// ErrMalformedHash is returned by [Decode] and the inspection helpers when
	// an encoded hash has an unknown version tag, the wrong width, a bad cost
	// field, or characters outside the encoding alphabet.
	//
	// Verification never returns it; see [ErrVerificationFailed].
	ErrMalformedHash = errors.New("hashing: malformed hash")

	// ErrRandomSourceUnavailable is returned when the salt cannot be read from
	// the secure random source. The operation is aborted; there is no fallback.
	ErrRandomSourceUnavailable = errors.New("hashing: secure random source unavailable")

	// ErrVerificationFailed is the single failure returned by [Compare]. A
	// wrong plaintext and an unparsable hash are indistinguishable.
	ErrVerificationFailed = errors.New("hashing: verification failed")

	// ErrInvalidOption is returned when a driver constructor receives a
	// parameter outside its allowed range (e.g. an argon2 time of zero).
	ErrInvalidOption = errors.New("hashing: invalid option value")

	// ErrDriverNotFound is returned by [Manager.Driver] or indirectly by
	// [Manager.Make] when the requested driver has not been registered.
	ErrDriverNotFound = errors.New("hashing: driver not found")

	// ErrEmptyDriverName is returned by [Manager.RegisterDriver] when the
	// supplied driver name is an empty string.
	ErrEmptyDriverName = errors.New("hashing: driver name must not be empty")

	// ErrNilHasher is returned by [Manager.RegisterDriver] when a nil [Hasher]
	// is supplied.
	ErrNilHasher = errors.New("hashing: hasher must not be nil")

	// ErrAlgorithmMismatch is returned by a [Hasher]'s NeedsRehash or Info
	// method when the hash was produced by a different algorithm.
	ErrAlgorithmMismatch = errors.New("hashing: hash was produced by a different algorithm")
)
