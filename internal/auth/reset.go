package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewResetToken returns a 256-bit random token, hex encoded.
// It is stored verbatim on the user row with a short expiry.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
