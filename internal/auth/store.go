// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"time"
)

// # User Data Access (Durable Tier)

// UserRepository defines the data access contract against the store of record.
//
// The durable store is authoritative: cache tiers accelerate it but every
// correctness-critical decision (email uniqueness, token fallback redemption)
// is enforced here.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByToken returns the account holding the given outstanding action
		token session, provided its durable expiry has not passed.

		Description: This is the fallback redemption path for signed tokens
		whose cache entry has been evicted while the durable record is still
		within its validity window.

		Parameters:
		  - context: context.Context
		  - tokenType: TokenType
		  - session: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByToken(context context.Context, tokenType TokenType, session string) (*User, error)

	/*
		Create persists a brand-new account together with its initial
		email-verification token session and absolute expiry.

		Description: The email unique constraint here is the real guard
		against duplicate sign-ups; the cache-first existence check is a
		latency optimization only.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - verificationSession: string
		  - verificationExpires: time.Time

		Returns:
		  - error: Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User, verificationSession string, verificationExpires time.Time) error

	/*
		SetActionToken overwrites the outstanding token session and expiry of
		the given type for the user (at most one live token per type per user).

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenType: TokenType
		  - session: string
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	SetActionToken(context context.Context, userID string, tokenType TokenType, session string, expiresAt time.Time) error

	/*
		MarkVerified flips the verification flag and clears the outstanding
		verification-token fields in one durable write.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error

	/*
		ResetPassword replaces the password hash and clears the outstanding
		recovery-token fields in one durable write.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	ResetPassword(context context.Context, userID, newHash string) error
}

// # User Cache (Volatile Tier)

// UserCache caches full user records by id and by email.
//
// Reads are fail-open: an I/O failure is logged and reported as a miss so the
// caller falls through to the durable store. Correctness is never sacrificed
// for cache availability.
type UserCache interface {

	/*
		ReadByID returns the cached record under users:<id>.

		Returns:
		  - *User: Cached entity, or nil on miss
		  - error: Reserved; current implementations always fail open
	*/
	ReadByID(context context.Context, id string) (*User, error)

	/*
		ReadByEmail resolves users:email:<email> to an id, then the full
		record by id. Either miss yields nil.

		Returns:
		  - *User: Cached entity, or nil on miss
		  - error: Reserved; current implementations always fail open
	*/
	ReadByEmail(context context.Context, email string) (*User, error)

	/*
		Write stores the full record under its id key and a secondary
		email-to-id pointer key, both without expiry.

		Returns:
		  - error: Cache write failures
	*/
	Write(context context.Context, user *User) error
}

// # Session Cache (Volatile Tier)

// SessionCache creates, reads, and refreshes login sessions. It owns the
// session key namespace and the cookie policy defaults.
type SessionCache interface {

	/*
		Create generates a fresh session for the user and stores it under
		<namespace>:<userId>:<sessionId> with a TTL equal to the remaining
		time until the cookie's absolute expiry.

		Description: The returned storage key, not the bare session
		identifier, is the value handed to the client (encrypted) as the
		cookie payload and re-looked-up on every authenticated request.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - info: RequestInfo (raw user-agent is parsed during creation)
		  - overrides: *CookieOverrides (nil keeps server defaults)

		Returns:
		  - string: Storage key
		  - *SessionRecord: Stored record
		  - error: Creation failures (sign-in fails when the cache is down)
	*/
	Create(context context.Context, userID string, info RequestInfo, overrides *CookieOverrides) (string, *SessionRecord, error)

	/*
		ReadByKey returns the record under the given storage key.

		Returns:
		  - *SessionRecord: Stored record, or nil on miss (expired and
		    never-existed sessions are indistinguishable)
		  - error: Reserved; current implementations always fail open
	*/
	ReadByKey(context context.Context, key string) (*SessionRecord, error)

	/*
		Refresh advances last-access to now, recomputes the absolute expiry
		as now plus the configured lifetime, and rewrites the entry under the
		same key with a refreshed TTL (sliding-window semantics).

		Returns:
		  - *SessionRecord: Refreshed record, or nil on miss — a miss never
		    creates a new entry
		  - error: Reserved; current implementations always fail open
	*/
	Refresh(context context.Context, key string) (*SessionRecord, error)
}

// # Token Cache (Volatile Tier)

// TokenCache stores single-purpose expiring token records, each mapping an
// opaque session string to a user id under users:<type>:<session>.
type TokenCache interface {

	/*
		Write stores userID under the namespaced key with a TTL equal to the
		remaining time until expiresAt. Re-issuing for the same (type,
		session) pair overwrites.

		Returns:
		  - error: Cache write failures
	*/
	Write(context context.Context, tokenType TokenType, session, userID string, expiresAt time.Time) error

	/*
		Read resolves (type, session) to a user id and, on hit, fetches the
		full user record through the user cache.

		Description: A nil result means the entry expired or was evicted;
		callers must then consult the durable store via FindByToken, since
		the durable record may still be within its own expiry window.

		Returns:
		  - *User: Resolved entity, or nil on miss
		  - error: Reserved; current implementations always fail open
	*/
	Read(context context.Context, tokenType TokenType, session string) (*User, error)

	/*
		Remove deletes the namespaced entry, making the token permanently
		unredeemable from the cache. The caller must clear the durable token
		fields as well to prevent store-side fallback redemption.

		Returns:
		  - error: Deletion failures
	*/
	Remove(context context.Context, tokenType TokenType, session string) error
}

// # Outbound Notification

// Mailer enqueues a templated message onto the outbound mail queue. Delivery
// is asynchronous; a nil return means the message was accepted by the broker.
type Mailer interface {
	Enqueue(context context.Context, template, receiver string, locals map[string]string) error
}
