// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// # Token Cache

// RedisTokenCache implements [TokenCache] over the shared Redis client.
//
// Each token type occupies its own key namespace (users:<type>:<session>),
// and entry TTLs are derived from the same timestamp as the signed token's
// expiry claim, so both expire together.
type RedisTokenCache struct {
	client *redis.Client
	users  UserCache
	logger *slog.Logger
}

// NewTokenCache creates a new Redis-backed [TokenCache]. The user cache is
// needed to hydrate full records on Read.
func NewTokenCache(client *redis.Client, users UserCache, logger *slog.Logger) *RedisTokenCache {
	return &RedisTokenCache{client: client, users: users, logger: logger}
}

/*
Write stores the user id under the token's namespaced key.

Description: TTL equals the remaining time until expiresAt. Writing the same
(type, session) pair again overwrites; distinct sessions never collide. The
"one outstanding token per type per user" rule is enforced by the durable
store, not here.

Parameters:
  - context: context.Context
  - tokenType: TokenType
  - session: string
  - userID: string
  - expiresAt: time.Time

Returns:
  - error: Cache write failures
*/
func (cache *RedisTokenCache) Write(context context.Context, tokenType TokenType, session, userID string, expiresAt time.Time) error {

	key := tokenType.CacheKey(session)

	if err := cache.client.Set(context, key, userID, time.Until(expiresAt)).Err(); err != nil {
		return fmt.Errorf("token_cache_write_failed: %w", err)
	}

	return nil
}

/*
Read resolves (type, session) to the full owning user record.

Description: Two cache reads — the token entry yields a user id, the user
cache yields the record. Any miss along the chain returns nil; the caller
then falls back to the durable store, whose copy of the token may outlive
the cache entry.

Parameters:
  - context: context.Context
  - tokenType: TokenType
  - session: string

Returns:
  - *User: Resolved entity, or nil on miss
  - error: Always nil (fail-open)
*/
func (cache *RedisTokenCache) Read(context context.Context, tokenType TokenType, session string) (*User, error) {

	key := tokenType.CacheKey(session)

	// Resolve the token entry to a user id
	userID, err := cache.client.Get(context, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(context, "token_cache_read_failed",
				slog.String("token_type", string(tokenType)),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	// Hydrate the full record through the user cache
	return cache.users.ReadByID(context, userID)
}

/*
Remove deletes the namespaced entry for the given (type, session) pair.

Description: Deletion applies uniformly to every token type. After Remove,
the token is unredeemable from the cache; the caller must also clear the
durable token fields to close the store-side fallback path.

Parameters:
  - context: context.Context
  - tokenType: TokenType
  - session: string

Returns:
  - error: Deletion failures
*/
func (cache *RedisTokenCache) Remove(context context.Context, tokenType TokenType, session string) error {

	key := tokenType.CacheKey(session)

	if err := cache.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("token_cache_remove_failed: %w", err)
	}

	return nil
}
