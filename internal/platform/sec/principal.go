// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package sec

// Principal identifies the authenticated user attached to a request context.
//
// It is reconstructed by the session middleware from the session cookie and
// carries only what downstream handlers routinely need, never the full record.
type Principal struct {
	// UserID is the stable account identifier.
	UserID string `json:"user_id"`

	// Email of the account at session-resolution time.
	Email string `json:"email"`

	// SessionKey is the full namespaced cache key of the backing session.
	SessionKey string `json:"-"`
}
