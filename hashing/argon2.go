package hashing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ──────────────────────────────────────────────────────────────────────────────
// Options
// ──────────────────────────────────────────────────────────────────────────────

const (
	// DefaultArgon2Memory is the default memory cost in KiB (64 MiB).
	DefaultArgon2Memory uint32 = 64 * 1024

	// DefaultArgon2Time is the default number of passes over memory.
	DefaultArgon2Time uint32 = 3

	// DefaultArgon2Threads is the default degree of parallelism.
	DefaultArgon2Threads uint8 = 2

	// DefaultArgon2KeyLen is the default output key length in bytes.
	DefaultArgon2KeyLen uint32 = 32

	// DefaultArgon2MaxPlaintext bounds plaintext length for Argon2id.
	// Argon2 has no block limit, so this only caps the work an attacker can
	// force per call.
	DefaultArgon2MaxPlaintext = 1024

	// Upper bounds on parameters, both configured and read from a stored hash.
	// A stored hash beyond them is malformed and never computed.
	maxArgon2Memory  = 1024 * 1024 // KiB, 1 GiB
	maxArgon2Time    = 64
	maxArgon2KeyLen  = 1024
	maxArgon2SaltLen = 64

	argon2Version = argon2.Version
)

// Argon2Options configures an [Argon2idHasher].
//
// All parameters are encoded into the output hash string (PHC format), so
// changing them only affects newly produced hashes.
type Argon2Options struct {
	// Memory is the memory cost in KiB. Minimum: 8 * Threads.
	Memory uint32

	// Time is the number of passes over memory. Minimum: 1.
	Time uint32

	// Threads is the degree of parallelism. Minimum: 1.
	Threads uint8

	// KeyLen is the length of the derived key in bytes. Minimum: 16.
	KeyLen uint32

	// MaxPlaintext is the longest accepted plaintext in bytes.
	// Zero selects [DefaultArgon2MaxPlaintext].
	MaxPlaintext int

	// Random is the salt source. Nil selects crypto/rand.Reader.
	Random io.Reader
}

// DefaultArgon2Options returns Argon2Options with the recommended defaults.
func DefaultArgon2Options() Argon2Options {
	return Argon2Options{
		Memory:  DefaultArgon2Memory,
		Time:    DefaultArgon2Time,
		Threads: DefaultArgon2Threads,
		KeyLen:  DefaultArgon2KeyLen,
	}
}

func validateArgon2Options(opts Argon2Options) error {
	if opts.Time < 1 || opts.Time > maxArgon2Time {
		return fmt.Errorf("%w: argon2 time must be in [1, %d], got %d", ErrInvalidOption, maxArgon2Time, opts.Time)
	}
	if opts.Threads < 1 {
		return fmt.Errorf("%w: argon2 threads must be ≥ 1, got %d", ErrInvalidOption, opts.Threads)
	}
	if opts.Memory > maxArgon2Memory {
		return fmt.Errorf("%w: argon2 memory must be ≤ %d KiB, got %d", ErrInvalidOption, maxArgon2Memory, opts.Memory)
	}
	if opts.Memory < 8*uint32(opts.Threads) {
		return fmt.Errorf("%w: argon2 memory (%d KiB) must be ≥ 8×threads (%d KiB)",
			ErrInvalidOption, opts.Memory, 8*uint32(opts.Threads))
	}
	if opts.KeyLen < 16 || opts.KeyLen > maxArgon2KeyLen {
		return fmt.Errorf("%w: argon2 key_len must be in [16, %d], got %d", ErrInvalidOption, maxArgon2KeyLen, opts.KeyLen)
	}
	if opts.MaxPlaintext < 0 {
		return fmt.Errorf("%w: argon2 max plaintext must not be negative", ErrInvalidOption)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PHC string format
// ──────────────────────────────────────────────────────────────────────────────

type argon2Params struct {
	version uint32
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// encodePHC serialises an Argon2id hash in PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<key_base64>
func encodePHC(p argon2Params) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		DriverArgon2id,
		p.version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

// decodePHC parses an Argon2id PHC string. Every failure wraps
// [ErrMalformedHash].
func decodePHC(encoded string) (argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return argon2Params{}, fmt.Errorf("%w: expected 5-segment PHC string, got %d segments",
			ErrMalformedHash, len(parts)-1)
	}
	if parts[1] != string(DriverArgon2id) {
		return argon2Params{}, fmt.Errorf("%w: unknown argon2 variant %q", ErrMalformedHash, parts[1])
	}

	version, err := parseKV(parts[2], "v")
	if err != nil {
		return argon2Params{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2Version {
		return argon2Params{}, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	kvs, err := parseParams(parts[3])
	if err != nil {
		return argon2Params{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	memory, ok1 := kvs["m"]
	time, ok2 := kvs["t"]
	threads, ok3 := kvs["p"]
	if !ok1 || !ok2 || !ok3 {
		return argon2Params{}, fmt.Errorf("%w: missing m/t/p in %q", ErrMalformedHash, parts[3])
	}
	if memory > maxArgon2Memory || time > maxArgon2Time || threads > 255 || time == 0 || threads == 0 {
		return argon2Params{}, fmt.Errorf("%w: parameters out of range in %q", ErrMalformedHash, parts[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < SaltSize || len(salt) > maxArgon2SaltLen {
		return argon2Params{}, fmt.Errorf("%w: invalid salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > maxArgon2KeyLen {
		return argon2Params{}, fmt.Errorf("%w: invalid key", ErrMalformedHash)
	}

	return argon2Params{
		version: uint32(version),
		memory:  uint32(memory),
		time:    uint32(time),
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}

// parseKV parses a "key=value" string and returns the uint64 value.
func parseKV(s, key string) (uint64, error) {
	prefix := key + "="
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("expected %q prefix in %q", prefix, s)
	}
	return strconv.ParseUint(s[len(prefix):], 10, 64)
}

// parseParams splits "m=65536,t=3,p=2" into a map.
func parseParams(s string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	for _, kv := range strings.Split(s, ",") {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("malformed param %q", kv)
		}
		v, err := strconv.ParseUint(kv[eq+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric value in %q: %v", kv, err)
		}
		out[kv[:eq]] = v
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Argon2idHasher
// ──────────────────────────────────────────────────────────────────────────────

// Argon2idHasher hashes plaintext using Argon2id.
//
// It shares the plaintext policy and error kinds of the bcrypt engine so the
// [Manager] can switch between drivers without changing caller behaviour.
//
// Argon2idHasher is immutable after construction and safe for concurrent use.
type Argon2idHasher struct {
	opts   Argon2Options
	random io.Reader
}

// NewArgon2idHasher constructs an Argon2idHasher with the given options.
// Use [DefaultArgon2Options] for recommended defaults.
func NewArgon2idHasher(opts Argon2Options) (*Argon2idHasher, error) {
	if err := validateArgon2Options(opts); err != nil {
		return nil, err
	}
	if opts.MaxPlaintext == 0 {
		opts.MaxPlaintext = DefaultArgon2MaxPlaintext
	}
	random := opts.Random
	if random == nil {
		random = rand.Reader
	}
	return &Argon2idHasher{opts: opts, random: random}, nil
}

// Driver returns [DriverArgon2id].
func (h *Argon2idHasher) Driver() DriverName { return DriverArgon2id }

// Options returns the current Argon2 parameter set.
func (h *Argon2idHasher) Options() Argon2Options { return h.opts }

// Make hashes plaintext with Argon2id and returns a PHC-formatted string.
func (h *Argon2idHasher) Make(plaintext string) (string, error) {
	if err := checkPlaintext(plaintext, h.opts.MaxPlaintext); err != nil {
		return "", err
	}
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	key := argon2.IDKey([]byte(plaintext), salt,
		h.opts.Time, h.opts.Memory, h.opts.Threads, h.opts.KeyLen)
	return encodePHC(argon2Params{
		version: argon2Version,
		memory:  h.opts.Memory,
		time:    h.opts.Time,
		threads: h.opts.Threads,
		salt:    salt,
		key:     key,
	}), nil
}

// Verify reports whether plaintext matches the Argon2id PHC hash. Parameters
// are read from the hash, so verification survives option changes.
func (h *Argon2idHasher) Verify(plaintext, encoded string) bool {
	if checkPlaintext(plaintext, h.opts.MaxPlaintext) != nil {
		return false
	}
	p, err := decodePHC(encoded)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return ConstantTimeEqual(computed, p.key)
}

// NeedsRehash returns true if any parameter stored in the hash differs from
// the hasher's current configuration.
func (h *Argon2idHasher) NeedsRehash(encoded string) (bool, error) {
	p, err := h.decode(encoded)
	if err != nil {
		return false, err
	}
	return p.memory != h.opts.Memory ||
		p.time != h.opts.Time ||
		p.threads != h.opts.Threads ||
		uint32(len(p.key)) != h.opts.KeyLen, nil
}

// Info parses the PHC string and returns the encoded parameters.
func (h *Argon2idHasher) Info(encoded string) (HashInfo, error) {
	p, err := h.decode(encoded)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: DriverArgon2id,
		Params: map[string]any{
			"version": int(p.version),
			"memory":  p.memory,
			"time":    p.time,
			"threads": p.threads,
			"key_len": uint32(len(p.key)),
		},
	}, nil
}

func (h *Argon2idHasher) decode(encoded string) (argon2Params, error) {
	if d, ok := DetectDriver(encoded); ok && d != DriverArgon2id {
		return argon2Params{}, fmt.Errorf("%w: hash is %s, not argon2id", ErrAlgorithmMismatch, d)
	}
	return decodePHC(encoded)
}
