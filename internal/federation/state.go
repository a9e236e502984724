package federation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateState returns a random, URL-safe OAuth state parameter.
func generateState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
