// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sentra-app/sentra/internal/platform/constants"
)

// # User Cache

// RedisUserCache implements [UserCache] over the shared Redis client.
//
// Entries carry no TTL: they persist until explicitly evicted or the cache
// node reclaims them under memory pressure.
type RedisUserCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewUserCache creates a new Redis-backed [UserCache].
func NewUserCache(client *redis.Client, logger *slog.Logger) *RedisUserCache {
	return &RedisUserCache{client: client, logger: logger}
}

// cachedUser is the cache-private serialization of a [User].
//
// The domain entity strips credential material from its JSON form because
// that form is what API handlers return to clients. The cache is server-side
// storage and must hold the FULL record — a hash-less cached user would make
// every warm-cache sign-in reject valid credentials — so the hash and MFA
// secret travel as explicit sidecar fields that exist only inside Redis.
type cachedUser struct {
	User
	PasswordHash *string `json:"password_hash,omitempty"`
	MFASecret    string  `json:"mfa_secret,omitempty"`
}

// encodeCachedUser serializes the full record, credential material included.
func encodeCachedUser(user *User) ([]byte, error) {
	wrapped := cachedUser{User: *user, PasswordHash: user.PasswordHash}
	if user.MFA != nil {
		wrapped.MFASecret = user.MFA.Secret
	}
	return json.Marshal(wrapped)
}

// decodeCachedUser rebuilds the domain entity from a cache entry.
func decodeCachedUser(payload []byte) (*User, error) {
	var wrapped cachedUser
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, err
	}

	user := wrapped.User
	user.PasswordHash = wrapped.PasswordHash
	if user.MFA != nil {
		user.MFA.Secret = wrapped.MFASecret
	}
	return &user, nil
}

/*
ReadByID returns the cached record under users:<id>.

Description: Misses and I/O failures are both reported as (nil, nil); a
failure is logged so cache degradation stays visible without surfacing to
the caller.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Cached entity, or nil on miss
  - error: Always nil (fail-open)
*/
func (cache *RedisUserCache) ReadByID(context context.Context, id string) (*User, error) {

	// Fetch the serialized record by its primary key
	payload, err := cache.client.Get(context, constants.RedisPrefixUser+id).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(context, "user_cache_read_failed",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	// Deserialize into the domain entity. A corrupt entry is a miss.
	user, err := decodeCachedUser([]byte(payload))
	if err != nil {
		cache.logger.WarnContext(context, "user_cache_corrupt_entry",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return user, nil
}

/*
ReadByEmail resolves the email pointer key, then the full record by id.

Description: Two-step lookup — users:email:<email> holds only the id, the
full record lives under users:<id>. Either miss yields nil.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Cached entity, or nil on miss
  - error: Always nil (fail-open)
*/
func (cache *RedisUserCache) ReadByEmail(context context.Context, email string) (*User, error) {

	// Resolve the secondary email pointer to a user id
	id, err := cache.client.Get(context, constants.RedisPrefixUserEmail+email).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(context, "user_cache_email_read_failed",
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	// Chase the pointer to the full record
	return cache.ReadByID(context, id)
}

/*
Write stores the full record and its email pointer key, both without expiry.

Description: Write-through on account creation and durable mutation. Both
keys are written in one pipeline round trip.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Serialization or cache write failures
*/
func (cache *RedisUserCache) Write(context context.Context, user *User) error {

	// Serialize the full record, credential material included
	payload, err := encodeCachedUser(user)
	if err != nil {
		return fmt.Errorf("user_cache_marshal_failed: %w", err)
	}

	// Write both keys in a single round trip, no TTL on either
	pipeline := cache.client.Pipeline()
	pipeline.Set(context, constants.RedisPrefixUser+user.ID, payload, 0)
	pipeline.Set(context, constants.RedisPrefixUserEmail+user.Email, user.ID, 0)

	if _, err := pipeline.Exec(context); err != nil {
		return fmt.Errorf("user_cache_write_failed: %w", err)
	}

	return nil
}
