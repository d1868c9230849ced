package hashing

import "strings"

// DriverName identifies a hashing algorithm driver.
// Using a named string type prevents accidental confusion with plain strings.
type DriverName string

const (
	// DriverBcrypt selects the bcrypt driver (the default).
	DriverBcrypt DriverName = "bcrypt"
	// DriverArgon2id selects the Argon2id driver.
	DriverArgon2id DriverName = "argon2id"
)

// Hasher is the interface satisfied by all password-hashing drivers.
//
// All implementations must be safe for concurrent use by multiple goroutines.
type Hasher interface {
	// Make hashes plaintext and returns the encoded hash string.
	// A fresh salt is generated for every call, so two calls with the same
	// plaintext produce different outputs.
	Make(plaintext string) (string, error)

	// Verify reports whether plaintext matches the encoded hash. A hash the
	// driver cannot parse is reported as a mismatch, never as an error.
	Verify(plaintext, encoded string) bool

	// NeedsRehash reports whether encoded was produced with parameters that
	// differ from the driver's current configuration.
	NeedsRehash(encoded string) (bool, error)

	// Info extracts the parameters stored in an encoded hash without
	// verifying it.
	Info(encoded string) (HashInfo, error)

	// Driver returns the DriverName implemented by this hasher.
	Driver() DriverName
}

// HashInfo carries metadata parsed from an encoded hash string.
type HashInfo struct {
	// Driver is the hashing algorithm that produced the hash.
	Driver DriverName

	// Params holds algorithm-specific parameters extracted from the hash.
	//
	// For bcrypt:
	//   "version" → string ("2a", "2b" or "2y")
	//   "cost"    → int
	//
	// For Argon2id:
	//   "version" → int    (Argon2 version number, typically 19)
	//   "memory"  → uint32 (KiB)
	//   "time"    → uint32 (iterations)
	//   "threads" → uint8  (degree of parallelism)
	//   "key_len" → uint32 (output key length in bytes)
	Params map[string]any
}

// DetectDriver inspects the version tag of an encoded hash and returns the
// [DriverName] that produced it. It does not validate the rest of the string.
//
// The second return value is false when the tag is not recognised.
func DetectDriver(encoded string) (DriverName, bool) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return DriverArgon2id, true
	case strings.HasPrefix(encoded, "$"+string(Version2a)+"$"),
		strings.HasPrefix(encoded, "$"+string(Version2b)+"$"),
		strings.HasPrefix(encoded, "$"+string(Version2y)+"$"):
		return DriverBcrypt, true
	default:
		return "", false
	}
}
