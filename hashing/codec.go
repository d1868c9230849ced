package hashing

import (
	"encoding/base64"
	"fmt"
)

// Version is the bcrypt revision tag stored between the first two "$"
// separators of an encoded hash.
type Version string

const (
	// Version2a is the original revision with the NUL-terminated key.
	Version2a Version = "2a"
	// Version2b fixes the 8-bit length wraparound of 2a; identical output for
	// plaintext up to MaxPlaintextBytes.
	Version2b Version = "2b"
	// Version2y is the crypt_blowfish name for a correct 2a.
	Version2y Version = "2y"

	// CurrentVersion is written by every new hash.
	CurrentVersion = Version2b
)

// Known reports whether v is a version this package can decode.
func (v Version) Known() bool {
	switch v {
	case Version2a, Version2b, Version2y:
		return true
	default:
		return false
	}
}

const (
	// EncodedSize is the fixed width of an encoded bcrypt hash:
	// "$2b$" + 2 cost digits + "$" + 22 salt chars + 31 digest chars.
	EncodedSize = 60

	saltEncodedSize   = 22
	digestEncodedSize = 31

	costOffset = 4
	saltOffset = 7
)

// radix64 is the bcrypt base64 alphabet, unpadded.
var radix64 = base64.NewEncoding("./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789").
	WithPadding(base64.NoPadding)

// Decoded holds the four fields of an encoded bcrypt hash.
type Decoded struct {
	Version Version
	Cost    int
	Salt    []byte
	Digest  []byte
}

// Encode serialises d into the fixed-width form
//
//	$<version>$<cost>$<salt><digest>
//
// Encode is deterministic. It returns [ErrMalformedHash] when d cannot be
// represented: unknown version, cost outside [MinCost, MaxCost], or salt and
// digest of the wrong size.
func Encode(d Decoded) (string, error) {
	if !d.Version.Known() {
		return "", fmt.Errorf("%w: unknown version %q", ErrMalformedHash, d.Version)
	}
	if d.Cost < MinCost || d.Cost > MaxCost {
		return "", fmt.Errorf("%w: cost %d out of range", ErrMalformedHash, d.Cost)
	}
	if len(d.Salt) != SaltSize {
		return "", fmt.Errorf("%w: salt is %d bytes, want %d", ErrMalformedHash, len(d.Salt), SaltSize)
	}
	if len(d.Digest) != DigestSize {
		return "", fmt.Errorf("%w: digest is %d bytes, want %d", ErrMalformedHash, len(d.Digest), DigestSize)
	}

	buf := make([]byte, 0, EncodedSize)
	buf = append(buf, '$')
	buf = append(buf, string(d.Version)...)
	buf = append(buf, '$', byte('0'+d.Cost/10), byte('0'+d.Cost%10), '$')
	buf = radix64.AppendEncode(buf, d.Salt)
	buf = radix64.AppendEncode(buf, d.Digest)
	return string(buf), nil
}

// Decode parses an encoded bcrypt hash. Any deviation from the fixed-width
// layout yields [ErrMalformedHash].
func Decode(encoded string) (Decoded, error) {
	if len(encoded) != EncodedSize {
		return Decoded{}, fmt.Errorf("%w: hash is %d bytes, want %d",
			ErrMalformedHash, len(encoded), EncodedSize)
	}
	if encoded[0] != '$' || encoded[costOffset-1] != '$' || encoded[saltOffset-1] != '$' {
		return Decoded{}, fmt.Errorf("%w: missing separator", ErrMalformedHash)
	}

	version := Version(encoded[1 : costOffset-1])
	if !version.Known() {
		return Decoded{}, fmt.Errorf("%w: unknown version %q", ErrMalformedHash, version)
	}

	hi, lo := encoded[costOffset], encoded[costOffset+1]
	if !isDigit(hi) || !isDigit(lo) {
		return Decoded{}, fmt.Errorf("%w: non-numeric cost %q", ErrMalformedHash, encoded[costOffset:costOffset+2])
	}
	cost := int(hi-'0')*10 + int(lo-'0')
	if cost < MinCost || cost > MaxCost {
		return Decoded{}, fmt.Errorf("%w: cost %d out of range", ErrMalformedHash, cost)
	}

	salt, err := decodeField(encoded[saltOffset:saltOffset+saltEncodedSize], SaltSize)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	digest, err := decodeField(encoded[saltOffset+saltEncodedSize:saltOffset+saltEncodedSize+digestEncodedSize], DigestSize)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: digest: %v", ErrMalformedHash, err)
	}

	return Decoded{Version: version, Cost: cost, Salt: salt, Digest: digest}, nil
}

// decodeField decodes one radix-64 field and checks its decoded width. The
// std decoder silently drops CR and LF, so the width check also rejects
// fields that contain them.
func decodeField(s string, want int) ([]byte, error) {
	b, err := radix64.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, fmt.Errorf("decoded %d bytes, want %d", len(b), want)
	}
	return b, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
