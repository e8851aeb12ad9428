// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/sec"
)

// # Counting Spies
//
// These doubles exist to prove a NEGATIVE: that rejected tokens never cost a
// cache or store operation. Every method only bumps a counter.

type spyUserCache struct{ ops atomic.Int32 }

func (spy *spyUserCache) ReadByID(context.Context, string) (*User, error) {
	spy.ops.Add(1)
	return nil, nil
}
func (spy *spyUserCache) ReadByEmail(context.Context, string) (*User, error) {
	spy.ops.Add(1)
	return nil, nil
}
func (spy *spyUserCache) Write(context.Context, *User) error {
	spy.ops.Add(1)
	return nil
}

type spySessionCache struct{ ops atomic.Int32 }

func (spy *spySessionCache) Create(context.Context, string, RequestInfo, *CookieOverrides) (string, *SessionRecord, error) {
	spy.ops.Add(1)
	return "", nil, nil
}
func (spy *spySessionCache) ReadByKey(context.Context, string) (*SessionRecord, error) {
	spy.ops.Add(1)
	return nil, nil
}
func (spy *spySessionCache) Refresh(context.Context, string) (*SessionRecord, error) {
	spy.ops.Add(1)
	return nil, nil
}

type spyTokenCache struct{ ops atomic.Int32 }

func (spy *spyTokenCache) Write(context.Context, TokenType, string, string, time.Time) error {
	spy.ops.Add(1)
	return nil
}
func (spy *spyTokenCache) Read(context.Context, TokenType, string) (*User, error) {
	spy.ops.Add(1)
	return nil, nil
}
func (spy *spyTokenCache) Remove(context.Context, TokenType, string) error {
	spy.ops.Add(1)
	return nil
}

type orderingHarness struct {
	service   *Service
	repo      *fakeRepository
	userSpy   *spyUserCache
	sessSpy   *spySessionCache
	tokenSpy  *spyTokenCache
	signer    *sec.TokenService
	wrongSign *sec.TokenService
}

func newOrderingHarness(t *testing.T) *orderingHarness {
	t.Helper()

	repo := newFakeRepository()
	userSpy := &spyUserCache{}
	sessSpy := &spySessionCache{}
	tokenSpy := &spyTokenCache{}
	signer := sec.NewTokenService("ordering-secret", "sentra.io")

	codec, err := sec.NewCookieCodec("ordering-session-secret")
	require.NoError(t, err)

	service := NewService(repo, userSpy, sessSpy, tokenSpy, &fakeMailer{}, signer, codec, "https://app.sentra.io")

	return &orderingHarness{
		service:   service,
		repo:      repo,
		userSpy:   userSpy,
		sessSpy:   sessSpy,
		tokenSpy:  tokenSpy,
		signer:    signer,
		wrongSign: sec.NewTokenService("forgers-secret", "sentra.io"),
	}
}

func (harness *orderingHarness) assertZeroIO(t *testing.T) {
	t.Helper()
	assert.Zero(t, harness.userSpy.ops.Load(), "user cache must not be touched")
	assert.Zero(t, harness.sessSpy.ops.Load(), "session cache must not be touched")
	assert.Zero(t, harness.tokenSpy.ops.Load(), "token cache must not be touched")
	assert.Zero(t, harness.repo.callCount(), "durable store must not be touched")
}

/*
TestConfirmEmail_TypeMismatchCostsZeroIO verifies that a recovery token
presented to the confirmation flow is rejected on its claims alone — zero
cache operations and zero store operations.
*/
func TestConfirmEmail_TypeMismatchCostsZeroIO(t *testing.T) {
	harness := newOrderingHarness(t)

	signed, err := harness.signer.SignActionToken(string(TokenRecover), "sess", time.Now().Add(time.Hour))
	require.NoError(t, err)

	err = harness.service.ConfirmEmail(context.Background(), signed)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	harness.assertZeroIO(t)
}

/*
TestResetPassword_TypeMismatchCostsZeroIO mirrors the check for the reset
flow: a verification token must be rejected before any lookup.
*/
func TestResetPassword_TypeMismatchCostsZeroIO(t *testing.T) {
	harness := newOrderingHarness(t)

	signed, err := harness.signer.SignActionToken(string(TokenEmailVerification), "sess", time.Now().Add(time.Hour))
	require.NoError(t, err)

	err = harness.service.ResetPassword(context.Background(), signed, "new password value")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	harness.assertZeroIO(t)
}

/*
TestForgedTokenCostsZeroIO verifies that signature verification is ordered
before all I/O: a token signed with the wrong secret never reaches a cache
or the store, in any consuming flow.
*/
func TestForgedTokenCostsZeroIO(t *testing.T) {
	harness := newOrderingHarness(t)
	ctx := context.Background()

	forged, err := harness.wrongSign.SignActionToken(string(TokenEmailVerification), "sess", time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.Error(t, harness.service.ConfirmEmail(ctx, forged))
	assert.Error(t, harness.service.ResetPassword(ctx, forged, "new password value"))

	_, err = harness.service.IntrospectToken(ctx, forged)
	assert.Error(t, err)

	harness.assertZeroIO(t)
}

/*
TestExpiredTokenCostsZeroIO verifies expiry is part of the pre-I/O check.
*/
func TestExpiredTokenCostsZeroIO(t *testing.T) {
	harness := newOrderingHarness(t)

	signed, err := harness.signer.SignActionToken(string(TokenEmailVerification), "sess", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	err = harness.service.ConfirmEmail(context.Background(), signed)
	require.Error(t, err)
	assert.Equal(t, MsgSessionExpired, apperr.As(err).Message)

	harness.assertZeroIO(t)
}
