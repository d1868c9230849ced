package hashing

import "crypto/subtle"

// Verify reports whether plaintext corresponds to the encoded bcrypt hash.
//
// A malformed hash, a plaintext the engine would refuse to hash, and a wrong
// plaintext all return false.
func Verify(plaintext, encoded string) bool {
	return Compare(plaintext, encoded) == nil
}

// Compare is [Verify] in error form: it returns nil on a match and
// [ErrVerificationFailed] otherwise. The cause of a failure is never exposed.
func Compare(plaintext, encoded string) error {
	d, err := Decode(encoded)
	if err != nil {
		return ErrVerificationFailed
	}

	digest, err := Derive([]byte(plaintext), d.Salt, d.Cost)
	if err != nil {
		return ErrVerificationFailed
	}

	if !ConstantTimeEqual(digest, d.Digest) {
		return ErrVerificationFailed
	}
	return nil
}

// ConstantTimeEqual reports whether a and b are equal. For inputs of equal
// length the running time does not depend on where they first differ.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
