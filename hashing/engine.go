package hashing

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/blowfish"
)

const (
	// MinCost is the smallest accepted bcrypt cost factor (2^4 rounds).
	MinCost = 4

	// MaxCost is the largest accepted bcrypt cost factor (2^31 rounds).
	MaxCost = 31

	// DefaultCost is used when a caller passes a cost of zero.
	// At cost 10 a single hash takes on the order of 100 ms on a modern CPU.
	DefaultCost = 10

	// MaxPlaintextBytes is the longest plaintext accepted by the bcrypt
	// engine. The Blowfish key schedule only reads 72 key bytes; longer input
	// is rejected with [ErrInvalidInput] instead of being truncated.
	MaxPlaintextBytes = 72

	// SaltSize is the length in bytes of the random salt drawn for every hash.
	SaltSize = 16

	// DigestSize is the length in bytes of the digest stored in a hash.
	DigestSize = 23
)

// magicCipherData is the 24-byte block encrypted 64 times by the final stage
// of the schedule.
var magicCipherData = []byte("OrpheanBeholderScryDoubt")

// Engine produces bcrypt hashes from plaintext.
//
// The only state an Engine carries is its random source, which it reads from
// but never mutates. An Engine is safe for concurrent use as long as the
// random source is; the default [crypto/rand.Reader] is.
type Engine struct {
	random io.Reader
}

// NewEngine returns an Engine that draws salts from random. A nil reader
// selects [crypto/rand.Reader].
func NewEngine(random io.Reader) *Engine {
	if random == nil {
		random = rand.Reader
	}
	return &Engine{random: random}
}

var defaultEngine = NewEngine(nil)

// Hash hashes plaintext with a fresh salt at the given cost using the
// process-wide secure random source.
//
// A cost of zero selects [DefaultCost]. Returns [ErrInvalidInput],
// [ErrInvalidCostFactor] or [ErrRandomSourceUnavailable].
func Hash(plaintext string, cost int) (string, error) {
	return defaultEngine.Hash(plaintext, cost)
}

// Hash hashes plaintext with a fresh salt at the given cost and returns the
// encoded hash in the current version format ("$2b$...").
func (e *Engine) Hash(plaintext string, cost int) (string, error) {
	cost, err := resolveCost(cost)
	if err != nil {
		return "", err
	}
	if err := checkPlaintext(plaintext, MaxPlaintextBytes); err != nil {
		return "", err
	}

	salt, err := e.salt()
	if err != nil {
		return "", err
	}

	digest, err := Derive([]byte(plaintext), salt, cost)
	if err != nil {
		return "", err
	}

	return Encode(Decoded{
		Version: CurrentVersion,
		Cost:    cost,
		Salt:    salt,
		Digest:  digest,
	})
}

func (e *Engine) salt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(e.random, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return salt, nil
}

// Derive runs the expensive key schedule over plaintext and salt with 2^cost
// rounds and returns the [DigestSize]-byte digest.
//
// Derive never generates a salt; verification passes the salt decoded from
// the stored hash. The computation cannot be interrupted once started.
func Derive(plaintext, salt []byte, cost int) ([]byte, error) {
	if err := checkCost(cost); err != nil {
		return nil, err
	}
	if len(plaintext) == 0 || len(plaintext) > MaxPlaintextBytes {
		return nil, fmt.Errorf("%w: plaintext must be 1..%d bytes, got %d",
			ErrInvalidInput, MaxPlaintextBytes, len(plaintext))
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d",
			ErrInvalidInput, SaltSize, len(salt))
	}

	// The key includes the trailing NUL byte.
	key := make([]byte, len(plaintext)+1)
	copy(key, plaintext)
	defer clear(key)

	c, err := blowfish.NewSaltedCipher(key, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing: bcrypt: key schedule: %w", err)
	}

	rounds := uint64(1) << uint(cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(key, c)
		blowfish.ExpandKey(salt, c)
	}

	block := make([]byte, len(magicCipherData))
	copy(block, magicCipherData)
	for i := 0; i < len(block); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(block[i:i+8], block[i:i+8])
		}
	}

	return block[:DigestSize], nil
}

// resolveCost maps zero to DefaultCost and validates everything else.
func resolveCost(cost int) (int, error) {
	if cost == 0 {
		return DefaultCost, nil
	}
	return cost, checkCost(cost)
}

func checkCost(cost int) error {
	if cost < MinCost || cost > MaxCost {
		return fmt.Errorf("%w: cost %d must be in [%d, %d]",
			ErrInvalidCostFactor, cost, MinCost, MaxCost)
	}
	return nil
}

func checkPlaintext(plaintext string, limit int) error {
	if plaintext == "" {
		return fmt.Errorf("%w: plaintext must not be empty", ErrInvalidInput)
	}
	if len(plaintext) > limit {
		return fmt.Errorf("%w: plaintext is %d bytes, limit is %d",
			ErrInvalidInput, len(plaintext), limit)
	}
	return nil
}
