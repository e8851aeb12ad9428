// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package sec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// CookieCodec encrypts and decrypts the session storage key handed to the
// client as the session cookie payload.
//
// # Why encrypt?
//
// The storage key embeds the owning user ID (`<namespace>:<userId>:<sessionId>`).
// AES-GCM keeps that structure opaque to the client and makes the cookie
// tamper-evident: a modified payload fails authentication during decryption
// and is treated as an expired session.
type CookieCodec struct {
	aead cipher.AEAD
}

// NewCookieCodec derives a 256-bit AES-GCM key from the configured session secret.
func NewCookieCodec(secret string) (*CookieCodec, error) {
	// SHA-256 normalizes arbitrary-length secrets to a valid AES-256 key.
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("sec: failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to initialize GCM: %w", err)
	}

	return &CookieCodec{aead: aead}, nil
}

// Encrypt seals the plaintext and returns a URL-safe base64 payload.
func (codec *CookieCodec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, codec.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("sec: failed to generate nonce: %w", err)
	}

	// Nonce is prepended so Decrypt can recover it without extra framing.
	sealed := codec.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by [CookieCodec.Encrypt].
//
// Any tampering, truncation, or use of a different secret yields an error.
func (codec *CookieCodec) Decrypt(payload string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("sec: malformed cookie payload: %w", err)
	}

	nonceSize := codec.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("sec: cookie payload too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := codec.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("sec: failed to decrypt cookie payload: %w", err)
	}

	return string(plaintext), nil
}
