// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package auth implements the user identity, session, and action-token layer.

It defines the core domain entities (User, SessionRecord) and the logic for
credential authentication, email verification, and account recovery.

# Architecture

This layer is the "Truth" of the system. Every flow drives a two-tier lookup:
the volatile cache tier (Redis) is consulted first, and the durable store
(PostgreSQL) is authoritative on a miss. Session records live ONLY in the
volatile tier; action tokens live in both, with the durable copy acting as a
fallback after cache eviction.
*/
package auth

import (
	"time"

	"github.com/sentra-app/sentra/internal/platform/constants"
	"github.com/sentra-app/sentra/pkg/useragent"
)

// # Domain Entities

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	// StatusActive is the normal state; the account can sign in.
	StatusActive UserStatus = "ACTIVE"

	// StatusSuspended blocks sign-in; reversible by staff action.
	StatusSuspended UserStatus = "SUSPENDED"

	// StatusDisabled blocks sign-in; reversible only through the
	// reactivation token flow.
	StatusDisabled UserStatus = "DISABLED"
)

// MFAConfig holds the optional multi-factor configuration of an account.
type MFAConfig struct {
	Enabled bool   `json:"enabled"`
	Secret  string `json:"-"` // TOTP secret. Never serialized to clients.
}

// OAuthProvider is one linked external-identity-provider binding.
type OAuthProvider struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}

// User represents a registered member of the Sentra platform.
//
// PasswordHash is nullable: accounts created through an external identity
// provider carry no local credential and can never pass password sign-in.
type User struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	EmailVerified  bool            `json:"email_verified"`
	Status         UserStatus      `json:"status"`
	PasswordHash   *string         `json:"-"` // Explicitly omitted from JSON for security.
	Username       string          `json:"username"`
	Gender         string          `json:"gender,omitempty"`
	Picture        string          `json:"picture,omitempty"`
	PhoneNumber    string          `json:"phone_number,omitempty"`
	BirthDate      *time.Time      `json:"birth_date,omitempty"`
	MFA            *MFAConfig      `json:"mfa,omitempty"`
	OAuthProviders []OAuthProvider `json:"oauth_providers,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// # Sessions

// CookieOptions is the cookie policy stored alongside a session record.
// The absolute Expires timestamp doubles as the cache entry's expiry.
type CookieOptions struct {
	Path     string    `json:"path"`
	HTTPOnly bool      `json:"http_only"`
	Secure   bool      `json:"secure"`
	Expires  time.Time `json:"expires"`
}

// CookieOverrides carries caller-supplied cookie attributes merged onto the
// server defaults at session creation. Nil fields keep the default.
type CookieOverrides struct {
	Path     *string
	HTTPOnly *bool
	Secure   *bool
	Expires  *time.Time
}

// RequestInfo is the request-origin metadata captured at sign-in and
// refreshed on activity.
type RequestInfo struct {
	IP           string              `json:"ip"`
	UserAgent    useragent.UserAgent `json:"user_agent"`
	UserAgentRaw string              `json:"user_agent_raw"`
	CreatedAt    time.Time           `json:"created_at"`
	LastAccess   time.Time           `json:"last_access"`
}

// SessionRecord represents an active login session.
//
// The record's lifetime in the cache equals the cookie's remaining validity.
// Once the cache entry expires the session is unconditionally invalid; there
// is no durable fallback for sessions.
type SessionRecord struct {
	ID      string        `json:"id"`
	UserID  string        `json:"user_id"`
	Cookie  CookieOptions `json:"cookie"`
	ReqInfo RequestInfo   `json:"request_info"`
}

// # Action Tokens

// TokenType discriminates single-purpose expiring tokens. Each type occupies
// a disjoint cache key namespace, so collisions across types are impossible
// even if session strings collided.
type TokenType string

const (
	TokenEmailVerification TokenType = "emailVerification"
	TokenRecover           TokenType = "recover"
	TokenReActivate        TokenType = "reActivate"
)

// CacheKey builds the namespaced cache key for this token type:
// users:<type>:<session>.
func (tokenType TokenType) CacheKey(session string) string {
	return constants.RedisPrefixUser + string(tokenType) + ":" + session
}

// Valid reports whether the value is one of the known token types.
func (tokenType TokenType) Valid() bool {
	switch tokenType {
	case TokenEmailVerification, TokenRecover, TokenReActivate:
		return true
	}
	return false
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldUsername = "username"
	FieldToken    = "token"
	FieldUser     = "user"
	FieldMessage  = "message"
)
