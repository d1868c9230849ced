package hashing

import (
	"fmt"
	"io"
)

// BcryptOptions configures a [BcryptHasher].
type BcryptOptions struct {
	// Cost is the bcrypt work factor (logarithmic).
	// Valid range: [MinCost (4), MaxCost (31)]. Zero selects [DefaultCost].
	Cost int

	// Random is the salt source. Nil selects crypto/rand.Reader.
	Random io.Reader
}

// DefaultBcryptOptions returns BcryptOptions with [DefaultCost].
func DefaultBcryptOptions() BcryptOptions {
	return BcryptOptions{Cost: DefaultCost}
}

// BcryptHasher is the [Hasher] driver for the bcrypt engine.
//
// BcryptHasher is immutable after construction and safe for concurrent use.
type BcryptHasher struct {
	engine *Engine
	cost   int
}

// NewBcryptHasher constructs a BcryptHasher with the provided options.
// Returns [ErrInvalidCostFactor] if Cost is outside [MinCost, MaxCost].
func NewBcryptHasher(opts BcryptOptions) (*BcryptHasher, error) {
	cost, err := resolveCost(opts.Cost)
	if err != nil {
		return nil, err
	}
	return &BcryptHasher{engine: NewEngine(opts.Random), cost: cost}, nil
}

// Driver returns [DriverBcrypt].
func (h *BcryptHasher) Driver() DriverName { return DriverBcrypt }

// Cost returns the configured bcrypt work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Make hashes plaintext at the configured cost.
//
// Plaintext longer than [MaxPlaintextBytes] is rejected with
// [ErrInvalidInput]; pre-hash it or use the Argon2id driver if long secrets
// must be supported.
func (h *BcryptHasher) Make(plaintext string) (string, error) {
	return h.engine.Hash(plaintext, h.cost)
}

// MakeCost hashes plaintext at cost instead of the configured one. A cost of
// zero selects the configured cost.
func (h *BcryptHasher) MakeCost(plaintext string, cost int) (string, error) {
	if cost == 0 {
		cost = h.cost
	}
	return h.engine.Hash(plaintext, cost)
}

// Verify reports whether plaintext matches the bcrypt hash. The cost and salt
// are read from the hash, so hashes made at other costs still verify.
func (h *BcryptHasher) Verify(plaintext, encoded string) bool {
	return Verify(plaintext, encoded)
}

// NeedsRehash returns true if the cost encoded in the hash differs from the
// hasher's configured cost, or if the hash was written with an older version
// tag than [CurrentVersion].
func (h *BcryptHasher) NeedsRehash(encoded string) (bool, error) {
	d, err := h.decode(encoded)
	if err != nil {
		return false, err
	}
	return d.Cost != h.cost || d.Version != CurrentVersion, nil
}

// Info extracts the version tag and work factor from a bcrypt hash.
func (h *BcryptHasher) Info(encoded string) (HashInfo, error) {
	d, err := h.decode(encoded)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: DriverBcrypt,
		Params: map[string]any{
			"version": string(d.Version),
			"cost":    d.Cost,
		},
	}, nil
}

func (h *BcryptHasher) decode(encoded string) (Decoded, error) {
	if d, ok := DetectDriver(encoded); ok && d != DriverBcrypt {
		return Decoded{}, fmt.Errorf("%w: hash is %s, not bcrypt", ErrAlgorithmMismatch, d)
	}
	return Decode(encoded)
}
