package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, enough that collisions across any
// practical session volume are cryptographically negligible.
const TokenBytes = 32

// minTokenBytes is the floor below which a token is guessable enough to
// matter. GenerateToken refuses shorter requests.
const minTokenBytes = 16

// GenerateToken returns n bytes from crypto/rand encoded as unpadded
// base64url. The result is opaque: it carries no decodable structure and is
// used purely as a lookup key.
func GenerateToken(n int) (string, error) {
	if n < minTokenBytes {
		return "", fmt.Errorf("token length %d below minimum %d bytes", n, minTokenBytes)
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
