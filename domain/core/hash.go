package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	SchemaFingerprint Hash
	ResultFingerprint Hash
	CacheKey          Hash
)

func (h SchemaFingerprint) String() string { return Hash(h).String() }
func (h ResultFingerprint) String() string { return Hash(h).String() }
func (k CacheKey) String() string          { return Hash(k).String() }

// HashParts derives a hash from an ordered list of string parts.
// A field separator keeps ("ab","c") and ("a","bc") distinct.
func HashParts(parts ...string) Hash {
	var data strings.Builder
	for _, p := range parts {
		data.WriteString(p)
		data.WriteByte(0x1f)
	}
	return NewHash([]byte(data.String()))
}
