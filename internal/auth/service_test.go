// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/sec"
)

// # Test Doubles

// fakeRepository is an in-memory [UserRepository]. It mirrors the durable
// token-column semantics: one outstanding token per type per user, with a
// per-token expiry checked at redemption time.
type fakeRepository struct {
	mu      sync.Mutex
	byID    map[string]*User
	tokens  map[TokenType]map[string]string    // type -> session -> userID
	expires map[TokenType]map[string]time.Time // type -> session -> expiry
	calls   int

	// findByTokenErr, when set, simulates a store outage on FindByToken.
	findByTokenErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byID:    map[string]*User{},
		tokens:  map[TokenType]map[string]string{},
		expires: map[TokenType]map[string]time.Time{},
	}
}

func (repo *fakeRepository) FindByID(_ context.Context, id string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	if user, ok := repo.byID[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	for _, user := range repo.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeRepository) FindByToken(_ context.Context, tokenType TokenType, session string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	if repo.findByTokenErr != nil {
		return nil, repo.findByTokenErr
	}

	userID, ok := repo.tokens[tokenType][session]
	if !ok || time.Now().After(repo.expires[tokenType][session]) {
		return nil, apperr.NotFound("User")
	}

	copied := *repo.byID[userID]
	return &copied, nil
}

func (repo *fakeRepository) Create(_ context.Context, user *User, verificationSession string, verificationExpires time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	for _, existing := range repo.byID {
		if existing.Email == user.Email {
			return apperr.Conflict(MsgEmailAlreadyRegistered)
		}
	}

	copied := *user
	repo.byID[user.ID] = &copied
	repo.setToken(TokenEmailVerification, verificationSession, user.ID, verificationExpires)
	return nil
}

func (repo *fakeRepository) SetActionToken(_ context.Context, userID string, tokenType TokenType, session string, expiresAt time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	if _, ok := repo.byID[userID]; !ok {
		return apperr.NotFound("User")
	}
	repo.setToken(tokenType, session, userID, expiresAt)
	return nil
}

func (repo *fakeRepository) MarkVerified(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.EmailVerified = true
	repo.clearToken(TokenEmailVerification, userID)
	return nil
}

func (repo *fakeRepository) ResetPassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = &newHash
	repo.clearToken(TokenRecover, userID)
	return nil
}

// setToken replaces the user's outstanding token of the given type.
func (repo *fakeRepository) setToken(tokenType TokenType, session, userID string, expiresAt time.Time) {
	repo.clearToken(tokenType, userID)
	if repo.tokens[tokenType] == nil {
		repo.tokens[tokenType] = map[string]string{}
		repo.expires[tokenType] = map[string]time.Time{}
	}
	repo.tokens[tokenType][session] = userID
	repo.expires[tokenType][session] = expiresAt
}

func (repo *fakeRepository) clearToken(tokenType TokenType, userID string) {
	for session, owner := range repo.tokens[tokenType] {
		if owner == userID {
			delete(repo.tokens[tokenType], session)
			delete(repo.expires[tokenType], session)
		}
	}
}

func (repo *fakeRepository) callCount() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.calls
}

// fakeMailer records enqueued messages and can be told to fail.
type fakeMailer struct {
	mu       sync.Mutex
	sent     []string // template names, in enqueue order
	failWith error
}

func (mailer *fakeMailer) Enqueue(_ context.Context, template, _ string, _ map[string]string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()

	if mailer.failWith != nil {
		return mailer.failWith
	}
	mailer.sent = append(mailer.sent, template)
	return nil
}

func (mailer *fakeMailer) sentTemplates() []string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return append([]string(nil), mailer.sent...)
}

// # Harness

type serviceHarness struct {
	service  *Service
	repo     *fakeRepository
	mailer   *fakeMailer
	signer   *sec.TokenService
	codec    *sec.CookieCodec
	client   *redis.Client
	users    *RedisUserCache
	sessions *RedisSessionCache
	tokens   *RedisTokenCache
}

// newServiceHarness wires a Service against miniredis-backed caches, the
// in-memory repository, and real crypto primitives.
func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	_, client := newTestRedis(t)
	logger := discardLogger()

	repo := newFakeRepository()
	mailer := &fakeMailer{}
	signer := sec.NewTokenService("service-test-secret", "sentra.io")

	codec, err := sec.NewCookieCodec("service-test-session-secret")
	require.NoError(t, err)

	users := NewUserCache(client, logger)
	sessions := NewSessionCache(client, "sid", time.Hour, false, logger)
	tokens := NewTokenCache(client, users, logger)

	service := NewService(repo, users, sessions, tokens, mailer, signer, codec, "https://app.sentra.io")

	return &serviceHarness{
		service:  service,
		repo:     repo,
		mailer:   mailer,
		signer:   signer,
		codec:    codec,
		client:   client,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

func (harness *serviceHarness) signUp(t *testing.T, email string) *User {
	t.Helper()

	user, err := harness.service.SignUp(context.Background(), SignUpInput{
		Email:    email,
		Password: "correct horse battery",
		Username: "tester",
	})
	require.NoError(t, err)
	return user
}

// # Sign-Up

/*
TestSignUp_Success verifies the created entity and all three side effects:
user cache populate, token cache populate, and the verification mail.
*/
func TestSignUp_Success(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")

	assert.Equal(t, StatusActive, user.Status)
	assert.False(t, user.EmailVerified)
	require.NotNil(t, user.PasswordHash)

	// User cache was written through.
	cached, err := harness.users.ReadByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.ID, cached.ID)

	// The verification mail went out.
	assert.Equal(t, []string{TemplateVerifyEmail}, harness.mailer.sentTemplates())
}

/*
TestSignUp_DuplicateEmailConflict verifies the scenario: sign-up with
a@x.com, then an immediate duplicate — the second call must fail with the
"already registered" conflict.
*/
func TestSignUp_DuplicateEmailConflict(t *testing.T) {
	harness := newServiceHarness(t)

	harness.signUp(t, "a@x.com")

	_, err := harness.service.SignUp(context.Background(), SignUpInput{
		Email:    "a@x.com",
		Password: "another password",
		Username: "imposter",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code)
	assert.Equal(t, MsgEmailAlreadyRegistered, appError.Message)
}

/*
TestSignUp_MailFailureFailsTheBatch verifies the joined-batch policy: one
failing side effect fails the whole request, and completed members (the
durable create) are not rolled back.
*/
func TestSignUp_MailFailureFailsTheBatch(t *testing.T) {
	harness := newServiceHarness(t)
	harness.mailer.failWith = errors.New("broker down")

	_, err := harness.service.SignUp(context.Background(), SignUpInput{
		Email:    "a@x.com",
		Password: "correct horse battery",
		Username: "tester",
	})
	require.Error(t, err)

	// Accepted consistency gap: the durable record already exists, so a
	// retry surfaces as a conflict rather than a clean re-run.
	found, findErr := harness.repo.FindByEmail(context.Background(), "a@x.com")
	assert.NoError(t, findErr)
	assert.NotNil(t, found)
}

// # Sign-In

/*
TestSignIn_UniformRejection verifies enumeration resistance: unknown email,
wrong password, and an account with no local password all yield the SAME
literal message.
*/
func TestSignIn_UniformRejection(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	harness.signUp(t, "a@x.com")

	// Passwordless (external identity) account.
	harness.repo.byID["ext-1"] = &User{ID: "ext-1", Email: "oauth@x.com", Status: StatusActive}

	attempts := []SignInInput{
		{Email: "ghost@x.com", Password: "whatever"},
		{Email: "a@x.com", Password: "wrong password"},
		{Email: "oauth@x.com", Password: "whatever"},
	}

	for _, attempt := range attempts {
		_, err := harness.service.SignIn(ctx, attempt)
		require.Error(t, err)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "UNAUTHORIZED", appError.Code)
		assert.Equal(t, MsgInvalidCredentials, appError.Message)
	}
}

/*
TestSignIn_StatusGates verifies suspended and disabled accounts are rejected
with distinct messages after the credential check passes.
*/
func TestSignIn_StatusGates(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	tests := []struct {
		status  UserStatus
		message string
	}{
		{StatusSuspended, MsgAccountSuspended},
		{StatusDisabled, MsgAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			email := string(tt.status) + "@x.com"
			user := harness.signUp(t, email)

			harness.repo.mu.Lock()
			harness.repo.byID[user.ID].Status = tt.status
			harness.repo.mu.Unlock()

			// Invalidate the cached ACTIVE copy so the store is consulted.
			require.NoError(t, harness.users.Write(ctx, harness.repo.byID[user.ID]))

			_, err := harness.service.SignIn(ctx, SignInInput{
				Email:    email,
				Password: "correct horse battery",
			})
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "FORBIDDEN", appError.Code)
			assert.Equal(t, tt.message, appError.Message)
		})
	}
}

/*
TestSignIn_SessionRoundTrip verifies the full session loop: sign-in encrypts
a storage key into the cookie payload, and ResolveSession turns that payload
back into the owning principal while sliding the window.
*/
func TestSignIn_SessionRoundTrip(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")

	result, err := harness.service.SignIn(ctx, SignInInput{
		Email:     "a@x.com",
		Password:  "correct horse battery",
		IP:        "203.0.113.9",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.CookiePayload)

	// The payload is opaque: decrypting recovers the namespaced storage key.
	key, err := harness.codec.Decrypt(result.CookiePayload)
	require.NoError(t, err)
	assert.Contains(t, key, "sid:"+user.ID+":")

	principal, err := harness.service.ResolveSession(ctx, result.CookiePayload)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, "a@x.com", principal.Email)
	assert.Equal(t, key, principal.SessionKey)
}

/*
TestResolveSession_TamperedCookie verifies a modified payload reads as an
expired session, not a distinct error.
*/
func TestResolveSession_TamperedCookie(t *testing.T) {
	harness := newServiceHarness(t)

	_, err := harness.service.ResolveSession(context.Background(), "not-a-real-payload")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, MsgSessionExpired, appError.Message)
}

// # Recovery

/*
TestRecover_UnknownEmail verifies the deliberate asymmetry with sign-in:
recovery reveals that an email is not registered.
*/
func TestRecover_UnknownEmail(t *testing.T) {
	harness := newServiceHarness(t)

	err := harness.service.Recover(context.Background(), "ghost@x.com")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

/*
TestRecover_Success verifies the three joined side effects: durable token
write, token cache mirror, recovery mail.
*/
func TestRecover_Success(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")

	require.NoError(t, harness.service.Recover(ctx, "a@x.com"))

	// Durable token written.
	harness.repo.mu.Lock()
	session := ""
	for s, owner := range harness.repo.tokens[TokenRecover] {
		if owner == user.ID {
			session = s
		}
	}
	harness.repo.mu.Unlock()
	require.NotEmpty(t, session)

	// Cache mirror resolves to the owner.
	cached, err := harness.tokens.Read(ctx, TokenRecover, session)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.ID, cached.ID)

	// Both mails: sign-up verification, then recovery.
	assert.Equal(t, []string{TemplateVerifyEmail, TemplateRecoverAccount}, harness.mailer.sentTemplates())
}

// # Confirmation

// issueToken mints a signed token plus durable+cache entries for a user,
// mirroring what the issuing flows do.
func (harness *serviceHarness) issueToken(t *testing.T, tokenType TokenType, userID string, expiresAt time.Time) string {
	t.Helper()
	ctx := context.Background()

	session, err := sec.GenerateSecureToken(ActionSessionLength)
	require.NoError(t, err)

	require.NoError(t, harness.repo.SetActionToken(ctx, userID, tokenType, session, expiresAt))
	require.NoError(t, harness.tokens.Write(ctx, tokenType, session, userID, expiresAt))

	signed, err := harness.signer.SignActionToken(string(tokenType), session, expiresAt)
	require.NoError(t, err)
	return signed
}

/*
TestConfirmEmail_Success verifies the durable verified flag flips and the
token becomes unredeemable from the cache namespace.
*/
func TestConfirmEmail_Success(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenEmailVerification, user.ID, time.Now().Add(ActionTokenTTL))

	require.NoError(t, harness.service.ConfirmEmail(ctx, signed))

	// Durable flag flipped, token columns cleared.
	stored, err := harness.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// A second redemption finds nothing anywhere.
	err = harness.service.ConfirmEmail(ctx, signed)
	require.Error(t, err)
	assert.Equal(t, MsgSessionExpired, apperr.As(err).Message)
}

/*
TestConfirmEmail_ExpiredToken verifies the scenario: an expired signed token
yields the session-expired rejection and the durable record is untouched.
*/
func TestConfirmEmail_ExpiredToken(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenEmailVerification, user.ID, time.Now().Add(-time.Minute))

	err := harness.service.ConfirmEmail(ctx, signed)
	require.Error(t, err)
	assert.Equal(t, MsgSessionExpired, apperr.As(err).Message)

	stored, err := harness.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

/*
TestConfirmEmail_CacheEvictionFallsBackToStore verifies the durable fallback:
evicting the cache entry must not break redemption while the durable token is
still within its window.
*/
func TestConfirmEmail_CacheEvictionFallsBackToStore(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenEmailVerification, user.ID, time.Now().Add(ActionTokenTTL))

	// Simulate cache eviction of everything.
	claims, err := harness.signer.VerifyActionToken(signed)
	require.NoError(t, err)
	require.NoError(t, harness.tokens.Remove(ctx, TokenEmailVerification, claims.Session))

	require.NoError(t, harness.service.ConfirmEmail(ctx, signed))

	stored, err := harness.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
}

/*
TestConfirmEmail_StoreOutageIsNotExpiry verifies that a durable-store failure
during token resolution keeps its identity as a dependency error instead of
masquerading as an expired token.
*/
func TestConfirmEmail_StoreOutageIsNotExpiry(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenEmailVerification, user.ID, time.Now().Add(ActionTokenTTL))

	// Evict the cached token entry and break the store behind it.
	harness.client.FlushAll(ctx)
	harness.repo.mu.Lock()
	harness.repo.findByTokenErr = errors.New("connection refused")
	harness.repo.mu.Unlock()

	err := harness.service.ConfirmEmail(ctx, signed)
	require.Error(t, err)
	assert.Nil(t, apperr.As(err), "a store outage must not map onto an auth rejection")
	assert.ErrorContains(t, err, "connection refused")
}

// # Reset

/*
TestResetPassword_Success verifies the new hash lands durably, the recovery
token is consumed, and sign-in works with the new password only.
*/
func TestResetPassword_Success(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenRecover, user.ID, time.Now().Add(ActionTokenTTL))

	require.NoError(t, harness.service.ResetPassword(ctx, signed, "brand new password"))

	// Token consumed: replay is rejected.
	err := harness.service.ResetPassword(ctx, signed, "yet another password")
	require.Error(t, err)
	assert.Equal(t, MsgSessionExpired, apperr.As(err).Message)

	// The stale user-cache copy still holds the old hash; drop it so
	// sign-in consults the authoritative record.
	_ = harness.client.Del(ctx, "users:"+user.ID, "users:email:a@x.com")

	_, err = harness.service.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "correct horse battery"})
	require.Error(t, err)

	result, err := harness.service.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "brand new password"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
}

/*
TestResetPassword_StoreOutageIsNotExpiry mirrors the confirmation-flow check:
the reset flow resolves tokens store-only, so a store failure there must also
keep its identity rather than reading as an expired token.
*/
func TestResetPassword_StoreOutageIsNotExpiry(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")
	signed := harness.issueToken(t, TokenRecover, user.ID, time.Now().Add(ActionTokenTTL))

	harness.repo.mu.Lock()
	harness.repo.findByTokenErr = errors.New("connection refused")
	harness.repo.mu.Unlock()

	err := harness.service.ResetPassword(ctx, signed, "replacement password")
	require.Error(t, err)
	assert.Nil(t, apperr.As(err), "a store outage must not map onto an auth rejection")
	assert.ErrorContains(t, err, "connection refused")
}

// # Introspection

/*
TestIntrospectToken_RoundTrip verifies that issuing then immediately
introspecting returns the owning user for every token type.
*/
func TestIntrospectToken_RoundTrip(t *testing.T) {
	harness := newServiceHarness(t)
	ctx := context.Background()

	user := harness.signUp(t, "a@x.com")

	for _, tokenType := range []TokenType{TokenEmailVerification, TokenRecover, TokenReActivate} {
		signed := harness.issueToken(t, tokenType, user.ID, time.Now().Add(ActionTokenTTL))

		got, err := harness.service.IntrospectToken(ctx, signed)
		require.NoError(t, err, string(tokenType))
		assert.Equal(t, user.ID, got.ID)
	}
}

/*
TestIntrospectToken_Garbage verifies forged tokens are rejected with the
uniform expired-session message.
*/
func TestIntrospectToken_Garbage(t *testing.T) {
	harness := newServiceHarness(t)

	_, err := harness.service.IntrospectToken(context.Background(), "garbage.token.here")
	require.Error(t, err)
	assert.Equal(t, MsgSessionExpired, apperr.As(err).Message)
}
