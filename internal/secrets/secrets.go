// Package secrets produces the salted hashes stored for passwords and
// session tokens. Hash is deterministic for a given (secret, salt) pair,
// which is what the resolver relies on for equality comparison.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes  = 16
	hashBytes  = 32
	iterations = 4096
)

// NewSalt returns a fixed-length (32 hex chars) random salt.
func NewSalt() string {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy
		// source; nothing sensible can continue.
		panic("secrets: rand.Read: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// Hash derives a hex-encoded PBKDF2-SHA256 digest of secret under salt.
func Hash(secret, salt string) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), iterations, hashBytes, sha256.New)
	return hex.EncodeToString(key)
}

// NewSecret returns a random opaque secret for session tokens.
func NewSecret() string {
	buf := make([]byte, hashBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("secrets: rand.Read: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
