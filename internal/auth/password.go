package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters. Every stored credential uses this single
// scheme: a fresh random salt per hash, a deliberately slow derivation, and
// an encoded form that embeds the salt so verification is self-contained.
const (
	// pbkdf2Iterations follows the OWASP baseline for PBKDF2-HMAC-SHA256.
	pbkdf2Iterations = 100_000

	// pbkdf2SaltLen is the per-password random salt length in bytes.
	pbkdf2SaltLen = 16

	// pbkdf2KeyLen is the derived key length in bytes (256 bits).
	pbkdf2KeyLen = 32
)

// HashPassword derives a salted PBKDF2-HMAC-SHA256 hash of the password.
// The output is base64(salt || derived). Two calls on the same password
// produce different strings because the salt is random per call.
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	combined := make([]byte, 0, len(salt)+len(derived))
	combined = append(combined, salt...)
	combined = append(combined, derived...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword checks a plaintext password against a stored hash string.
// A malformed or truncated hash returns false rather than an error: the
// caller treats "stored hash is garbage" identically to "wrong password".
func VerifyPassword(password, encoded string) bool {
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	if len(combined) != pbkdf2SaltLen+pbkdf2KeyLen {
		return false
	}

	salt := combined[:pbkdf2SaltLen]
	stored := combined[pbkdf2SaltLen:]

	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(stored, derived) == 1
}
