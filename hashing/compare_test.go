package hashing_test

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hasbyte1/passhash/hashing"
)

func TestVerify_MalformedHashIsFalse(t *testing.T) {
	for _, in := range []string{
		"",
		"not-a-valid-hash-format",
		"$2b$04$short",
		"$2x$04$CCCCCCCCCCCCCCCCCCCCC.E5YPO9kmyuRGyh0XouQYb4YMJKvyOeW",
		"$argon2id$v=19$m=65536,t=3,p=2$abc$def",
	} {
		if hashing.Verify("pw", in) {
			t.Errorf("Verify(%q) = true", in)
		}
	}
}

func TestVerify_UsesStoredCost(t *testing.T) {
	hash, err := hashing.Hash("pw", testCost+1)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !hashing.Verify("pw", hash) {
		t.Error("Verify failed for a hash made at a non-default cost")
	}
}

func TestVerify_TamperedDigest(t *testing.T) {
	hash, _ := hashing.Hash("pw", testCost)
	last := hash[len(hash)-2]
	repl := byte('A')
	if last == 'A' {
		repl = 'B'
	}
	tampered := hash[:len(hash)-2] + string(repl) + hash[len(hash)-1:]
	if hashing.Verify("pw", tampered) {
		t.Error("Verify accepted a hash with a modified digest")
	}
}

func TestVerify_OverLengthPlaintextIsFalse(t *testing.T) {
	long := strings.Repeat("a", hashing.MaxPlaintextBytes)
	hash, err := hashing.Hash(long, testCost)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hashing.Verify(long+"b", hash) {
		t.Error("Verify must not truncate over-length plaintext into a match")
	}
}

func TestCompare_SingleFailureKind(t *testing.T) {
	hash, _ := hashing.Hash("pw", testCost)

	if err := hashing.Compare("pw", hash); err != nil {
		t.Fatalf("Compare match: %v", err)
	}

	mismatch := hashing.Compare("other", hash)
	malformed := hashing.Compare("pw", "garbage")
	empty := hashing.Compare("", hash)

	for name, err := range map[string]error{"mismatch": mismatch, "malformed": malformed, "empty": empty} {
		if !errors.Is(err, hashing.ErrVerificationFailed) {
			t.Errorf("%s: expected ErrVerificationFailed, got %v", name, err)
		}
		if errors.Is(err, hashing.ErrMalformedHash) {
			t.Errorf("%s: Compare must not expose ErrMalformedHash", name)
		}
	}
	if mismatch.Error() != malformed.Error() {
		t.Errorf("mismatch and malformed errors differ: %q vs %q", mismatch, malformed)
	}
}

func TestConstantTimeEqual(t *testing.T) {
	a := []byte("abcdefghijklmnopqrstuvw")
	if !hashing.ConstantTimeEqual(a, bytes.Clone(a)) {
		t.Error("equal slices reported unequal")
	}
	b := bytes.Clone(a)
	b[5] ^= 1
	if hashing.ConstantTimeEqual(a, b) {
		t.Error("unequal slices reported equal")
	}
	if hashing.ConstantTimeEqual(a, a[:10]) {
		t.Error("different lengths reported equal")
	}
}

var timingSink int

// TestConstantTimeEqual_Timing compares the median time of comparisons that
// fail at the first byte with ones that fail at the last byte. Batches are
// interleaved so drift in CPU frequency affects both sides equally.
func TestConstantTimeEqual_Timing(t *testing.T) {
	if testing.Short() {
		t.Skip("timing harness skipped in -short mode")
	}

	const (
		trials = 41
		iters  = 20000
		limit  = 1.5
	)

	want := bytes.Repeat([]byte{0xA5}, hashing.DigestSize)
	early := bytes.Clone(want)
	early[0] ^= 0xFF
	late := bytes.Clone(want)
	late[hashing.DigestSize-1] ^= 0xFF

	measure := func(other []byte) time.Duration {
		start := time.Now()
		for i := 0; i < iters; i++ {
			if hashing.ConstantTimeEqual(want, other) {
				timingSink++
			}
		}
		return time.Since(start)
	}

	earlyRuns := make([]time.Duration, trials)
	lateRuns := make([]time.Duration, trials)
	for i := 0; i < trials; i++ {
		earlyRuns[i] = measure(early)
		lateRuns[i] = measure(late)
	}

	slices.Sort(earlyRuns)
	slices.Sort(lateRuns)
	e, l := earlyRuns[trials/2], lateRuns[trials/2]
	if e <= 0 || l <= 0 {
		t.Skip("timer resolution too coarse")
	}

	ratio := float64(max(e, l)) / float64(min(e, l))
	t.Logf("median first-byte mismatch %v, last-byte mismatch %v, ratio %.3f", e, l, ratio)
	if ratio > limit {
		t.Errorf("comparison time depends on mismatch position: ratio %.3f > %.1f", ratio, limit)
	}
}
