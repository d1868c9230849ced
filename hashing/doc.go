// Package hashing implements salted, cost-parameterised password hashing and
// verification.
//
// # Engine
//
// The default algorithm is bcrypt, built on the Blowfish primitive from
// golang.org/x/crypto/blowfish: a fresh 16-byte salt and the plaintext seed
// an expensive key schedule that runs 2^cost rounds, after which a fixed
// 24-byte block is encrypted 64 times and truncated to a 23-byte digest.
//
//	hash, err := hashing.Hash("my-secret-password", hashing.DefaultCost)
//	ok := hashing.Verify("my-secret-password", hash) // true
//
// Plaintext must be 1 to [MaxPlaintextBytes] bytes. Longer input is rejected
// with [ErrInvalidInput] rather than truncated.
//
// # Encoded hash format
//
// Hashes are fixed-width (60 byte) ASCII strings:
//
//	$2b$10$<22 chars salt><31 chars digest>
//
// The version tag ("2a", "2b", "2y") and the two-digit cost are stored in the
// string, so no external configuration is needed to verify. [Encode] and
// [Decode] convert between the string and its fields. Output is compatible
// with golang.org/x/crypto/bcrypt and other bcrypt implementations.
//
// # Verification
//
// [Verify] re-derives the digest with the stored salt and cost and compares
// it in constant time. It returns a bool only: a malformed hash and a wrong
// plaintext are the same "no match" outcome.
//
// # Drivers
//
// The [Hasher] interface has two implementations, [BcryptHasher] and
// [Argon2idHasher]. The [Manager] registers them by name, hashes with a
// default, and verifies by detecting the driver from the version tag.
// Call [Manager.NeedsRehash] after a successful verification to find hashes
// written with old parameters.
//
// # Concurrency
//
// Every function in this package runs to completion on the calling goroutine
// and shares no mutable state except the secure random source. Hashing at
// cost 10 and above takes on the order of 100 ms; callers with a dispatch
// loop should run it elsewhere (see package worker).
package hashing
