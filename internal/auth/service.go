// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Authentication flow controller.

Each public method is one request-scoped state machine composing the user
cache, session cache, token cache, the durable store, token signing, and
outbound notification. Two policies hold across every flow:

 1. Signed-token verification (signature, expiry, type) happens strictly
    before any cache or store access.
 2. Independent post-success side effects (cache populates, durable writes,
    mail enqueues) run as one joined concurrent batch — any single failure
    fails the whole request, and completed members are not rolled back.
*/

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/batch"
	"github.com/sentra-app/sentra/internal/platform/sec"
	"github.com/sentra-app/sentra/pkg/uuid"
)

// # Contracts & Types

// TokenSigner defines the contract for issuing and verifying signed action tokens.
type TokenSigner interface {
	// SignActionToken creates a tamper-evident credential carrying
	// {type, session, exp}.
	SignActionToken(tokenType, session string, expiresAt time.Time) (string, error)

	// VerifyActionToken validates signature and expiry, returning the claims.
	VerifyActionToken(tokenString string) (*sec.ActionClaims, error)
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to token verification
// ordering, sign-in rejection messages, or the cache fallback chains must be
// reviewed by the security team.
type Service struct {
	users       UserRepository
	userCache   UserCache
	sessions    SessionCache
	tokens      TokenCache
	mailer      Mailer
	tokenSigner TokenSigner
	cookieCodec *sec.CookieCodec
	clientURL   string
}

// NewService constructs a new [Service] with its collaborator dependencies.
func NewService(
	users UserRepository,
	userCache UserCache,
	sessions SessionCache,
	tokens TokenCache,
	mailer Mailer,
	tokenSigner TokenSigner,
	cookieCodec *sec.CookieCodec,
	clientURL string,
) *Service {
	return &Service{
		users:       users,
		userCache:   userCache,
		sessions:    sessions,
		tokens:      tokens,
		mailer:      mailer,
		tokenSigner: tokenSigner,
		cookieCodec: cookieCodec,
		clientURL:   clientURL,
	}
}

// # Two-Tier Lookup

/*
lookupByEmail resolves a user cache-first, then from the durable store.

Description: tier1.read ?? tier2.read — a cache miss always falls through
and is never an error. A store NotFound yields (nil, nil) so callers can
shape their own rejection.

Returns:
  - *User: Resolved entity, or nil when the email is unknown
  - error: Durable-store failures only
*/
func (service *Service) lookupByEmail(ctx context.Context, email string) (*User, error) {

	// Tier 1: volatile cache (fail-open)
	if user, _ := service.userCache.ReadByEmail(ctx, email); user != nil {
		return user, nil
	}

	// Tier 2: durable store (authoritative)
	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

/*
lookupByID resolves a user cache-first, then from the durable store.

Returns:
  - *User: Resolved entity
  - error: apperr.NotFound or durable-store failures
*/
func (service *Service) lookupByID(ctx context.Context, id string) (*User, error) {

	if user, _ := service.userCache.ReadByID(ctx, id); user != nil {
		return user, nil
	}

	return service.users.FindByID(ctx, id)
}

// # Sign-Up Flow

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	Email    string
	Password string
	Username string
}

/*
SignUp validates, hashes, and persists a brand-new account, then fires the
verification side effects.

Description: The cache-first existence check is a latency optimization; two
concurrent sign-ups for the same email can both pass it, and the durable
store's unique constraint is the actual enforcement point. On success the
user cache populate, token cache populate, and verification mail enqueue run
as one joined batch.

Parameters:
  - ctx: context.Context
  - input: SignUpInput

Returns:
  - *User: Created entity
  - error: Conflict (email taken) or storage failures
*/
func (service *Service) SignUp(ctx context.Context, input SignUpInput) (*User, error) {

	// 1. Reject if the email is already registered (cache-first, then store)
	existing, err := service.lookupByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(MsgEmailAlreadyRegistered)
	}

	// 2. Prevent storing plain-text passwords
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// 3. Construct the new entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:            uuid.New(),
		Email:         input.Email,
		EmailVerified: false,
		Status:        StatusActive,
		PasswordHash:  &hashedPassword,
		Username:      input.Username,
	}

	// 4. Mint the verification session; cache TTL and signed expiry share
	//    this single timestamp
	session, err := sec.GenerateSecureToken(ActionSessionLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_generation_failed: %w", err)
	}
	expiresAt := time.Now().Add(ActionTokenTTL)

	// 5. Durable create first — the unique constraint fires here
	if err := service.users.Create(ctx, user, session, expiresAt); err != nil {
		return nil, err
	}

	// 6. Sign the verification token
	signedToken, err := service.tokenSigner.SignActionToken(string(TokenEmailVerification), session, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_token_failed: %w", err)
	}

	// 7. Joined side-effect batch: all three or fail the request
	err = batch.Join(ctx,
		func(ctx context.Context) error {
			return service.userCache.Write(ctx, user)
		},
		func(ctx context.Context) error {
			return service.tokens.Write(ctx, TokenEmailVerification, session, user.ID, expiresAt)
		},
		func(ctx context.Context) error {
			return service.mailer.Enqueue(ctx, TemplateVerifyEmail, user.Email, map[string]string{
				"username": user.Username,
				"link":     service.clientURL + "/confirm-email?token=" + signedToken,
			})
		},
	)
	if err != nil {
		return nil, fmt.Errorf("auth_service_signup_side_effects_failed: %w", err)
	}

	return user, nil
}

// # Sign-In Flow

// SignInInput defines credentials and request origin for an authentication attempt.
type SignInInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// SignInResult carries the authenticated user and the encrypted session
// cookie material produced by a successful sign-in.
type SignInResult struct {
	User *User

	// CookiePayload is the AES-GCM-encrypted session storage key.
	CookiePayload string

	// Cookie carries the attributes (path, expiry, flags) for the Set-Cookie header.
	Cookie CookieOptions
}

/*
SignIn validates credentials and establishes a session.

Description: Unknown email, missing local password, and wrong password all
yield the exact same rejection message to resist account enumeration.
Suspended and disabled accounts are rejected with distinct messages AFTER
the password check, so status probing still requires valid credentials.

Parameters:
  - ctx: context.Context
  - input: SignInInput

Returns:
  - *SignInResult: User and encrypted cookie material
  - error: Unauthorized, Forbidden, or internal failures
*/
func (service *Service) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {

	// 1. Resolve the account (cache-first, then store)
	user, err := service.lookupByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	// 2. Uniform rejection: unknown email, no local password, or bad password
	if user == nil || user.PasswordHash == nil {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if !sec.CheckPasswordHash(input.Password, *user.PasswordHash) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	// 3. Status gates carry distinct messages
	switch user.Status {
	case StatusSuspended:
		return nil, apperr.Forbidden(MsgAccountSuspended)
	case StatusDisabled:
		return nil, apperr.Forbidden(MsgAccountDisabled)
	}

	// 4. Create the session; its storage key becomes the cookie payload
	key, record, err := service.sessions.Create(ctx, user.ID, RequestInfo{
		IP:           input.IP,
		UserAgentRaw: input.UserAgent,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_create_failed: %w", err)
	}

	// 5. Encrypt the storage key before it leaves the server
	payload, err := service.cookieCodec.Encrypt(key)
	if err != nil {
		return nil, fmt.Errorf("auth_service_cookie_encrypt_failed: %w", err)
	}

	return &SignInResult{
		User:          user,
		CookiePayload: payload,
		Cookie:        record.Cookie,
	}, nil
}

// # Recovery Flow

/*
Recover initiates the password recovery flow for the given email.

Description: An unknown email is rejected as not found — recovery is
initiated by email, not session, so this flow deliberately reveals account
existence while sign-in does not. On success the durable token write, token
cache mirror, and recovery mail enqueue run as one joined batch.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - error: NotFound or side-effect failures
*/
func (service *Service) Recover(ctx context.Context, email string) error {

	// 1. Resolve the account; absence is reported, not masked
	user, err := service.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("Email")
	}

	// 2. Mint the recovery session and sign its token
	session, err := sec.GenerateSecureToken(ActionSessionLength)
	if err != nil {
		return fmt.Errorf("auth_service_recover_session_failed: %w", err)
	}
	expiresAt := time.Now().Add(ActionTokenTTL)

	signedToken, err := service.tokenSigner.SignActionToken(string(TokenRecover), session, expiresAt)
	if err != nil {
		return fmt.Errorf("auth_service_recover_sign_failed: %w", err)
	}

	// 3. Joined side-effect batch: durable write, cache mirror, mail
	err = batch.Join(ctx,
		func(ctx context.Context) error {
			return service.users.SetActionToken(ctx, user.ID, TokenRecover, session, expiresAt)
		},
		func(ctx context.Context) error {
			return service.tokens.Write(ctx, TokenRecover, session, user.ID, expiresAt)
		},
		func(ctx context.Context) error {
			return service.mailer.Enqueue(ctx, TemplateRecoverAccount, user.Email, map[string]string{
				"username": user.Username,
				"link":     service.clientURL + "/reset-password?token=" + signedToken,
			})
		},
	)
	if err != nil {
		return fmt.Errorf("auth_service_recover_side_effects_failed: %w", err)
	}

	return nil
}

// # Confirmation Flow

/*
ConfirmEmail redeems an email-verification token.

Description: Signature, expiry, and type are checked before any cache or
store access. Resolution runs token-cache-first with a durable fallback; on
success the durable verified flag write and the token cache deletion run
concurrently.

Parameters:
  - ctx: context.Context
  - signedToken: string

Returns:
  - error: Unauthorized (expired/unknown), ValidationError (type mismatch),
    or storage failures
*/
func (service *Service) ConfirmEmail(ctx context.Context, signedToken string) error {

	// 1. Verify before any I/O
	claims, err := service.tokenSigner.VerifyActionToken(signedToken)
	if err != nil {
		return apperr.Unauthorized(MsgSessionExpired)
	}
	if TokenType(claims.Type) != TokenEmailVerification {
		return apperr.ValidationError(MsgInvalidTokenType)
	}

	// 2. Resolve the owner: token cache, then durable fallback
	user, err := service.resolveTokenOwner(ctx, TokenEmailVerification, claims.Session)
	if err != nil {
		return err
	}

	// 3. Durably mark verified and drop the cache entry, concurrently.
	//    MarkVerified also clears the durable token columns, closing the
	//    store-side redemption path.
	err = batch.Join(ctx,
		func(ctx context.Context) error {
			return service.users.MarkVerified(ctx, user.ID)
		},
		func(ctx context.Context) error {
			return service.tokens.Remove(ctx, TokenEmailVerification, claims.Session)
		},
	)
	if err != nil {
		return fmt.Errorf("auth_service_confirm_side_effects_failed: %w", err)
	}

	return nil
}

// # Reset Flow

/*
ResetPassword redeems a recovery token and replaces the password.

Description: Recovery intentionally skips the token cache and resolves the
user from the durable store directly, guaranteeing the fresh hash is written
against the authoritative record. The durable write and the token cache
deletion then run concurrently.

Parameters:
  - ctx: context.Context
  - signedToken: string
  - newPassword: string

Returns:
  - error: Unauthorized (expired/unknown), ValidationError (type mismatch),
    or storage failures
*/
func (service *Service) ResetPassword(ctx context.Context, signedToken, newPassword string) error {

	// 1. Verify before any I/O
	claims, err := service.tokenSigner.VerifyActionToken(signedToken)
	if err != nil {
		return apperr.Unauthorized(MsgSessionExpired)
	}
	if TokenType(claims.Type) != TokenRecover {
		return apperr.ValidationError(MsgInvalidTokenType)
	}

	// 2. Resolve directly against the store of record. An unknown or expired
	//    token session is an authentication failure; anything else is a
	//    dependency error and keeps its own identity.
	user, err := service.users.FindByToken(ctx, TokenRecover, claims.Session)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
			return apperr.Unauthorized(MsgSessionExpired)
		}
		return fmt.Errorf("auth_service_reset_lookup_failed: %w", err)
	}

	// 3. Hash the replacement password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_hash_failed: %w", err)
	}

	// 4. Durable write and cache deletion, concurrently. ResetPassword also
	//    clears the durable token columns.
	err = batch.Join(ctx,
		func(ctx context.Context) error {
			return service.users.ResetPassword(ctx, user.ID, hashedPassword)
		},
		func(ctx context.Context) error {
			return service.tokens.Remove(ctx, TokenRecover, claims.Session)
		},
	)
	if err != nil {
		return fmt.Errorf("auth_service_reset_side_effects_failed: %w", err)
	}

	return nil
}

// # Introspection

/*
IntrospectToken resolves the owner of any valid signed action token.

Description: Signature and expiry only — no type restriction, and no
mutation. Used by status checks that need to know whether a link is still
redeemable.

Parameters:
  - ctx: context.Context
  - signedToken: string

Returns:
  - *User: Owning account
  - error: Unauthorized when the token is invalid, expired, or orphaned
*/
func (service *Service) IntrospectToken(ctx context.Context, signedToken string) (*User, error) {

	// 1. Verify before any I/O
	claims, err := service.tokenSigner.VerifyActionToken(signedToken)
	if err != nil {
		return nil, apperr.Unauthorized(MsgSessionExpired)
	}

	tokenType := TokenType(claims.Type)
	if !tokenType.Valid() {
		return nil, apperr.ValidationError(MsgInvalidTokenType)
	}

	// 2. Resolve: token cache, then durable fallback
	return service.resolveTokenOwner(ctx, tokenType, claims.Session)
}

// resolveTokenOwner is the shared cache-then-store resolution chain for
// verified token claims. The cache miss falls through to FindByToken because
// the durable token copy may outlive the cache entry.
func (service *Service) resolveTokenOwner(ctx context.Context, tokenType TokenType, session string) (*User, error) {

	if user, _ := service.tokens.Read(ctx, tokenType, session); user != nil {
		return user, nil
	}

	user, err := service.users.FindByToken(ctx, tokenType, session)
	if err != nil {
		// Only a definitive "no such token" is an authentication failure; a
		// store outage must surface as a dependency error, not an expiry.
		if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
			return nil, apperr.Unauthorized(MsgSessionExpired)
		}
		return nil, fmt.Errorf("auth_service_token_lookup_failed: %w", err)
	}

	return user, nil
}

// # Session Resolution

/*
ResolveSession turns an encrypted session cookie payload into a principal.

Description: Decrypts the payload back into the storage key, slides the
session window via Refresh, and hydrates the owner. Tampered payloads,
expired sessions, and never-existing sessions are all indistinguishable and
yield the same rejection. Implements [middleware.SessionResolver].

Parameters:
  - ctx: context.Context
  - cookieValue: string

Returns:
  - *sec.Principal: Authenticated principal
  - error: apperr.Unauthorized on any resolution failure
*/
func (service *Service) ResolveSession(ctx context.Context, cookieValue string) (*sec.Principal, error) {

	// 1. Recover the storage key; tampering fails authentication here
	key, err := service.cookieCodec.Decrypt(cookieValue)
	if err != nil {
		return nil, apperr.Unauthorized(MsgSessionExpired)
	}

	// 2. Sliding-window refresh; a miss means the session is gone
	record, err := service.sessions.Refresh(ctx, key)
	if err != nil || record == nil {
		return nil, apperr.Unauthorized(MsgSessionExpired)
	}

	// 3. Hydrate the owner (cache-first, then store)
	user, err := service.lookupByID(ctx, record.UserID)
	if err != nil {
		return nil, apperr.Unauthorized(MsgSessionExpired)
	}

	return &sec.Principal{
		UserID:     user.ID,
		Email:      user.Email,
		SessionKey: key,
	}, nil
}

/*
CurrentUser returns the full account record behind an authenticated principal.

Parameters:
  - ctx: context.Context
  - principal: *sec.Principal

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or storage failures
*/
func (service *Service) CurrentUser(ctx context.Context, principal *sec.Principal) (*User, error) {
	return service.lookupByID(ctx, principal.UserID)
}
