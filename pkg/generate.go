package pkg

import (
	"crypto/rand"
	"encoding/base64"
)

// GeneratePlayerID - generates a new unique player identifier.
func GeneratePlayerID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-player-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}
