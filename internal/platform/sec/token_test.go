// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-app/sentra/internal/platform/sec"
)

/*
TestActionToken_RoundTrip verifies that a signed token verifies and carries
its type and session through unchanged.
*/
func TestActionToken_RoundTrip(t *testing.T) {
	service := sec.NewTokenService("test-secret-key", "sentra.io")

	signed, err := service.SignActionToken("emailVerification", "abc123session", time.Now().Add(4*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := service.VerifyActionToken(signed)
	require.NoError(t, err)

	assert.Equal(t, "emailVerification", claims.Type)
	assert.Equal(t, "abc123session", claims.Session)
	assert.Equal(t, "sentra.io", claims.Issuer)
}

/*
TestActionToken_Expired verifies that an expired token is rejected.
*/
func TestActionToken_Expired(t *testing.T) {
	service := sec.NewTokenService("test-secret-key", "sentra.io")

	signed, err := service.SignActionToken("recover", "sess", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	claims, err := service.VerifyActionToken(signed)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

/*
TestActionToken_WrongSecret verifies that a token signed with one secret
fails verification under another.
*/
func TestActionToken_WrongSecret(t *testing.T) {
	signer := sec.NewTokenService("secret-one", "sentra.io")
	verifier := sec.NewTokenService("secret-two", "sentra.io")

	signed, err := signer.SignActionToken("reActivate", "sess", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := verifier.VerifyActionToken(signed)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

/*
TestActionToken_Garbage verifies that a non-JWT string is rejected cleanly.
*/
func TestActionToken_Garbage(t *testing.T) {
	service := sec.NewTokenService("test-secret-key", "sentra.io")

	claims, err := service.VerifyActionToken("not-a-jwt-at-all")
	assert.Error(t, err)
	assert.Nil(t, claims)
}
