package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// sessionTokenBytes is the entropy of a session token (256 bits).
const sessionTokenBytes = 32

// GenerateSessionToken creates an opaque, hex-encoded bearer token for a session cookie.
func GenerateSessionToken() (string, error) {
	secret := make([]byte, sessionTokenBytes)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(secret), nil
}
