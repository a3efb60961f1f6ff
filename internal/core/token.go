package core

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const releaseTokenBytes = 16

// NewReleaseToken generates a one-time release capability: 128 bits from
// crypto/rand, hex encoded. Tokens carry no structure and are never
// derived from job content; collision resistance comes from entropy, not
// from a uniqueness check.
func NewReleaseToken() (string, error) {
	buf := make([]byte, releaseTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate release token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenMatches compares a presented token against the stored one in
// constant time. Empty presented tokens never match.
func TokenMatches(presented, stored string) bool {
	if presented == "" {
		return false
	}
	return hmac.Equal([]byte(presented), []byte(stored))
}
