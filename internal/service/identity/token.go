package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Customer access tokens are opaque `id|secret` pairs. The id half
// addresses the stored row, the secret half is compared against a
// sha256 hash so a leaked token table exposes no usable credentials.

// NewSecret generates the random secret half of an access token.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret returns the hex sha256 digest stored for a secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// FormatToken joins the stored id and plaintext secret into the bearer
// credential handed to the client.
func FormatToken(id, secret string) string {
	return id + "|" + secret
}

// SplitToken splits a bearer credential into its id and secret halves.
func SplitToken(token string) (id, secret string, ok bool) {
	return strings.Cut(token, "|")
}

func secretMatches(secret, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashSecret(secret)), []byte(storedHash)) == 1
}
