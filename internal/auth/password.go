package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length in bytes of a freshly generated password salt.
const SaltSize = 16

// HashParams tunes the argon2id key derivation.
type HashParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultHashParams is used by the server unless overridden.
var DefaultHashParams = HashParams{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  64,
}

// NewSalt returns SaltSize random bytes from the system CSPRNG.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Hash derives the password hash for the given salt.
func (p HashParams) Hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Verify recomputes the hash with the stored salt and compares in constant time.
func (p HashParams) Verify(password string, salt, hash []byte) bool {
	computed := p.Hash(password, salt)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}
