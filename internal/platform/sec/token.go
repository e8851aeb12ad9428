// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing,
// Cookie Encryption) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer via small interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActionClaims is the payload embedded inside a signed action token.
//
// An action token is a tamper-evident, self-contained credential for a
// single short-lived operation (email verification, password recovery,
// account reactivation). It is never stored server-side; only its opaque
// Session component is looked up against the cache/store.
type ActionClaims struct {
	jwt.RegisteredClaims

	// Type discriminates the operation the token is valid for. Consumers
	// must check it against the expected operation BEFORE any cache or
	// store lookup.
	Type string `json:"type"`

	// Session is the opaque random identifier bound to the owning user.
	Session string `json:"session"`
}

// TokenService handles generation and verification of action tokens using HS256.
//
// # Why HMAC?
//
// Action tokens are both issued and consumed by this service; no third party
// ever needs to verify them, so a single shared secret is sufficient and
// avoids key-file management.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService signing with the given secret.
func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// SignActionToken creates a signed action token of the given type.
//
// The token's 'exp' claim and the caller's cache TTL are both derived from
// expiresAt, so the signed credential and its cache entry expire together.
func (service *TokenService) SignActionToken(tokenType, session string, expiresAt time.Time) (string, error) {
	claims := ActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type:    tokenType,
		Session: session,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign action token: %w", err)
	}

	return signedToken, nil
}

// VerifyActionToken checks the signature and expiry of an action token string.
//
// Verification happens strictly before any cache or store access in every
// consuming flow — a forged or expired token must never cost a lookup.
func (service *TokenService) VerifyActionToken(tokenString string) (*ActionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid action token: %w", err)
	}

	claims, ok := token.Claims.(*ActionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid action token claims")
	}

	return claims, nil
}
