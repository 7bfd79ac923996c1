package shares

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 16 // 128 bits of entropy

// NewLinkToken generates an unguessable bearer token for a link share. The
// token is a credential: it is stored verbatim on the share record but must
// never appear in logs or audit metadata beyond TokenRef.
func NewLinkToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenRef returns a truncated, non-reversible reference to a link token,
// safe for audit metadata.
func TokenRef(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
