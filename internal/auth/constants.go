// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import "time"

// # Token & Session Constraints

const (
	// ActionTokenTTL is the validity window shared by all action token types.
	// The signed token's 'exp' claim and the cache entry's TTL are both
	// derived from the same issuance timestamp, so they expire together.
	ActionTokenTTL = 4 * time.Hour

	// ActionSessionLength is the byte length of the random opaque session
	// string embedded in signed action tokens.
	ActionSessionLength = 32

	// SessionIDLength is the byte length of the random session identifier.
	SessionIDLength = 32

	// CookiePathDefault is the default Path attribute of the session cookie.
	CookiePathDefault = "/"
)

// # Mail Templates

const (
	// TemplateVerifyEmail renders the post-sign-up verification mail.
	TemplateVerifyEmail = "verifyEmail"

	// TemplateRecoverAccount renders the password recovery mail.
	TemplateRecoverAccount = "recoverAccount"
)

// # Client-Facing Messages

const (
	// MsgEmailAlreadyRegistered rejects a duplicate sign-up.
	MsgEmailAlreadyRegistered = "Email is already registered"

	// MsgInvalidCredentials is the uniform sign-in rejection. Unknown email,
	// missing local password, and wrong password all yield this exact string
	// to resist account enumeration.
	MsgInvalidCredentials = "Invalid email or password"

	// MsgAccountSuspended rejects sign-in for suspended accounts.
	MsgAccountSuspended = "Your account has been suspended"

	// MsgAccountDisabled rejects sign-in for disabled accounts.
	MsgAccountDisabled = "Your account has been disabled"

	// MsgSessionExpired covers every expired/unknown token and session case.
	// Expired and never-existed are deliberately indistinguishable.
	MsgSessionExpired = "Your session has expired"

	// MsgInvalidTokenType rejects a signed token presented to an operation
	// expecting a different token type.
	MsgInvalidTokenType = "Invalid token type"
)
