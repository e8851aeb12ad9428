// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a cryptographically random, unguessable
// identifier of byteLength random bytes, hex-encoded.
//
// It is the single source of session identifiers and action-token session
// strings across the platform.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}
