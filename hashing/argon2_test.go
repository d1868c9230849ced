package hashing_test

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/hasbyte1/passhash/hashing"
)

// fastArgon2Opts returns minimal parameters so the suite stays fast.
func fastArgon2Opts() hashing.Argon2Options {
	return hashing.Argon2Options{
		Memory:  8 * 2, // 8 × Threads minimum
		Time:    1,
		Threads: 2,
		KeyLen:  16,
	}
}

func newTestArgon2idHasher(t *testing.T) *hashing.Argon2idHasher {
	t.Helper()
	h, err := hashing.NewArgon2idHasher(fastArgon2Opts())
	if err != nil {
		t.Fatalf("NewArgon2idHasher: %v", err)
	}
	return h
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructor / options
// ──────────────────────────────────────────────────────────────────────────────

func TestNewArgon2idHasher_InvalidOptions(t *testing.T) {
	cases := map[string]hashing.Argon2Options{
		"zero time":        {Memory: 64, Time: 0, Threads: 1, KeyLen: 32},
		"zero threads":     {Memory: 64, Time: 1, Threads: 0, KeyLen: 32},
		"memory too small": {Memory: 4, Time: 1, Threads: 1, KeyLen: 32},
		"short key":        {Memory: 64, Time: 1, Threads: 1, KeyLen: 8},
		"negative max":     {Memory: 64, Time: 1, Threads: 1, KeyLen: 32, MaxPlaintext: -1},
		"time too high":    {Memory: 64, Time: 65, Threads: 1, KeyLen: 32},
		"memory too high":  {Memory: 1<<20 + 1, Time: 1, Threads: 1, KeyLen: 32},
		"key too long":     {Memory: 64, Time: 1, Threads: 1, KeyLen: 1025},
	}
	for name, opts := range cases {
		if _, err := hashing.NewArgon2idHasher(opts); !errors.Is(err, hashing.ErrInvalidOption) {
			t.Errorf("%s: expected ErrInvalidOption, got %v", name, err)
		}
	}
}

func TestDefaultArgon2Options(t *testing.T) {
	opts := hashing.DefaultArgon2Options()
	if opts.Memory != hashing.DefaultArgon2Memory {
		t.Errorf("Memory = %d, want %d", opts.Memory, hashing.DefaultArgon2Memory)
	}
	if opts.Time != hashing.DefaultArgon2Time {
		t.Errorf("Time = %d, want %d", opts.Time, hashing.DefaultArgon2Time)
	}
	if opts.Threads != hashing.DefaultArgon2Threads {
		t.Errorf("Threads = %d, want %d", opts.Threads, hashing.DefaultArgon2Threads)
	}
	if opts.KeyLen != hashing.DefaultArgon2KeyLen {
		t.Errorf("KeyLen = %d, want %d", opts.KeyLen, hashing.DefaultArgon2KeyLen)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Make / Verify
// ──────────────────────────────────────────────────────────────────────────────

func TestArgon2idHasher_Make_PHCFormat(t *testing.T) {
	h := newTestArgon2idHasher(t)
	hash, err := h.Make("pw")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16,t=1,p=2$") {
		t.Errorf("unexpected PHC prefix: %q", hash)
	}
}

func TestArgon2idHasher_Make_UniqueHashes(t *testing.T) {
	h := newTestArgon2idHasher(t)
	h1, _ := h.Make("same")
	h2, _ := h.Make("same")
	if h1 == h2 {
		t.Error("two Make calls produced identical hashes")
	}
}

func TestArgon2idHasher_Make_PlaintextPolicy(t *testing.T) {
	opts := fastArgon2Opts()
	opts.MaxPlaintext = 8
	h, _ := hashing.NewArgon2idHasher(opts)

	if _, err := h.Make(""); !errors.Is(err, hashing.ErrInvalidInput) {
		t.Errorf("empty: expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.Make("123456789"); !errors.Is(err, hashing.ErrInvalidInput) {
		t.Errorf("too long: expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.Make("12345678"); err != nil {
		t.Errorf("at limit: unexpected error %v", err)
	}
}

func TestArgon2idHasher_Make_RandomSourceFailure(t *testing.T) {
	opts := fastArgon2Opts()
	opts.Random = iotest.ErrReader(errors.New("no entropy"))
	h, _ := hashing.NewArgon2idHasher(opts)
	if _, err := h.Make("pw"); !errors.Is(err, hashing.ErrRandomSourceUnavailable) {
		t.Errorf("expected ErrRandomSourceUnavailable, got %v", err)
	}
}

func TestArgon2idHasher_Verify(t *testing.T) {
	h := newTestArgon2idHasher(t)
	hash, _ := h.Make("correct horse")
	if !h.Verify("correct horse", hash) {
		t.Error("Verify returned false for correct plaintext")
	}
	if h.Verify("wrong horse", hash) {
		t.Error("Verify returned true for wrong plaintext")
	}
	if h.Verify("correct horse", "$argon2id$broken") {
		t.Error("Verify returned true for malformed hash")
	}
	if h.Verify("correct horse", validHash) {
		t.Error("Verify returned true for a bcrypt hash")
	}
}

func TestArgon2idHasher_Verify_AfterOptionChange(t *testing.T) {
	old := newTestArgon2idHasher(t)
	hash, _ := old.Make("pw")

	opts := fastArgon2Opts()
	opts.Time = 2
	opts.KeyLen = 32
	current, _ := hashing.NewArgon2idHasher(opts)
	if !current.Verify("pw", hash) {
		t.Error("hash made with old options no longer verifies")
	}
}

func TestArgon2idHasher_Verify_RejectsHugeMemory(t *testing.T) {
	h := newTestArgon2idHasher(t)
	hash := "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
	if h.Verify("pw", hash) {
		t.Error("Verify accepted an out-of-range memory cost")
	}
}

func TestArgon2idHasher_RejectsExpensiveStoredParams(t *testing.T) {
	h := newTestArgon2idHasher(t)
	const (
		salt = "c2FsdHNhbHRzYWx0c2FsdA"
		key  = "aGFzaGhhc2hoYXNoaGFzaA"
	)
	cases := map[string]string{
		"max uint32 time": "$argon2id$v=19$m=8,t=4294967295,p=1$" + salt + "$" + key,
		"time over cap":   "$argon2id$v=19$m=8,t=65,p=1$" + salt + "$" + key,
		"memory over cap": "$argon2id$v=19$m=1048577,t=1,p=1$" + salt + "$" + key,
		"key over cap":    "$argon2id$v=19$m=8,t=1,p=1$" + salt + "$" + strings.Repeat("A", 1368),
		"salt over cap":   "$argon2id$v=19$m=8,t=1,p=1$" + strings.Repeat("A", 88) + "$" + key,
	}
	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			if h.Verify("pw", hash) {
				t.Error("Verify accepted an out-of-range hash")
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("Verify ran the derivation for %s", elapsed)
			}
			if _, err := h.Info(hash); !errors.Is(err, hashing.ErrMalformedHash) {
				t.Errorf("Info: expected ErrMalformedHash, got %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// NeedsRehash / Info
// ──────────────────────────────────────────────────────────────────────────────

func TestArgon2idHasher_NeedsRehash(t *testing.T) {
	h := newTestArgon2idHasher(t)
	hash, _ := h.Make("pw")

	needs, err := h.NeedsRehash(hash)
	if err != nil || needs {
		t.Errorf("same params: needs=%v err=%v", needs, err)
	}

	opts := fastArgon2Opts()
	opts.Time = 2
	other, _ := hashing.NewArgon2idHasher(opts)
	needs, err = other.NeedsRehash(hash)
	if err != nil || !needs {
		t.Errorf("different time: needs=%v err=%v", needs, err)
	}

	if _, err := h.NeedsRehash(validHash); !errors.Is(err, hashing.ErrAlgorithmMismatch) {
		t.Errorf("bcrypt hash: expected ErrAlgorithmMismatch, got %v", err)
	}
}

func TestArgon2idHasher_Info(t *testing.T) {
	h := newTestArgon2idHasher(t)
	hash, _ := h.Make("pw")
	info, err := h.Info(hash)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Driver != hashing.DriverArgon2id {
		t.Errorf("Driver = %q", info.Driver)
	}
	if info.Params["memory"] != uint32(16) {
		t.Errorf("memory = %v, want 16", info.Params["memory"])
	}
	if info.Params["time"] != uint32(1) {
		t.Errorf("time = %v, want 1", info.Params["time"])
	}
	if info.Params["threads"] != uint8(2) {
		t.Errorf("threads = %v, want 2", info.Params["threads"])
	}
	if info.Params["key_len"] != uint32(16) {
		t.Errorf("key_len = %v, want 16", info.Params["key_len"])
	}
	if info.Params["version"] != 19 {
		t.Errorf("version = %v, want 19", info.Params["version"])
	}
}

func TestArgon2idHasher_Info_Malformed(t *testing.T) {
	h := newTestArgon2idHasher(t)
	for _, in := range []string{
		"$argon2id$v=18$m=16,t=1,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=16,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=16,t=1,p=2$!!!$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2i$v=19$m=16,t=1,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
	} {
		if _, err := h.Info(in); !errors.Is(err, hashing.ErrMalformedHash) {
			t.Errorf("Info(%q): expected ErrMalformedHash, got %v", in, err)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// DetectDriver
// ──────────────────────────────────────────────────────────────────────────────

func TestDetectDriver(t *testing.T) {
	cases := map[string]hashing.DriverName{
		"$argon2id$v=19$m=16,t=1,p=2$abc$def": hashing.DriverArgon2id,
		"$2a$10$abc":                          hashing.DriverBcrypt,
		"$2b$10$abc":                          hashing.DriverBcrypt,
		"$2y$10$abc":                          hashing.DriverBcrypt,
	}
	for in, want := range cases {
		got, ok := hashing.DetectDriver(in)
		if !ok || got != want {
			t.Errorf("DetectDriver(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
}

func TestDetectDriver_Unknown(t *testing.T) {
	for _, in := range []string{"", "plain", "$2x$10$abc", "$argon2i$v=19$", "$1$md5"} {
		if d, ok := hashing.DetectDriver(in); ok {
			t.Errorf("DetectDriver(%q) = %q, want unknown", in, d)
		}
	}
}
