// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentra-app/sentra/internal/platform/sec"
	"github.com/sentra-app/sentra/pkg/useragent"
)

// # Session Cache

// RedisSessionCache implements [SessionCache] over the shared Redis client.
//
// There is no durable tier behind it: once an entry's TTL elapses the
// session is unconditionally invalid.
type RedisSessionCache struct {
	client *redis.Client
	logger *slog.Logger

	// namespace is the first segment of every session storage key.
	namespace string

	// lifetime is the configured session window; activity slides it.
	lifetime time.Duration

	// secureCookies toggles the Secure attribute default (on in production).
	secureCookies bool
}

// NewSessionCache creates a new Redis-backed [SessionCache].
func NewSessionCache(client *redis.Client, namespace string, lifetime time.Duration, secureCookies bool, logger *slog.Logger) *RedisSessionCache {
	return &RedisSessionCache{
		client:        client,
		logger:        logger,
		namespace:     namespace,
		lifetime:      lifetime,
		secureCookies: secureCookies,
	}
}

/*
Create generates and stores a fresh session for the user.

Description: Builds the storage key <namespace>:<userId>:<sessionId> from a
fresh unguessable identifier, parses the raw user-agent into structured form,
merges caller cookie overrides onto server defaults, and stores the record
with a TTL equal to the remaining time until the cookie's absolute expiry.

Parameters:
  - context: context.Context
  - userID: string
  - info: RequestInfo (UserAgentRaw is parsed here; timestamps are stamped)
  - overrides: *CookieOverrides

Returns:
  - string: Storage key (the value encrypted into the session cookie)
  - *SessionRecord: Stored record
  - error: Generation or cache write failures
*/
func (cache *RedisSessionCache) Create(context context.Context, userID string, info RequestInfo, overrides *CookieOverrides) (string, *SessionRecord, error) {

	// 1. Generate the unguessable session identifier
	sessionID, err := sec.GenerateSecureToken(SessionIDLength)
	if err != nil {
		return "", nil, fmt.Errorf("session_cache_id_generation_failed: %w", err)
	}

	// 2. Stamp request-origin metadata and parse the user-agent
	now := time.Now()
	info.UserAgent = useragent.Parse(info.UserAgentRaw)
	info.CreatedAt = now
	info.LastAccess = now

	// 3. Merge cookie overrides onto the server defaults
	cookie := CookieOptions{
		Path:     CookiePathDefault,
		HTTPOnly: true,
		Secure:   cache.secureCookies,
		Expires:  now.Add(cache.lifetime),
	}
	applyCookieOverrides(&cookie, overrides)

	record := &SessionRecord{
		ID:      sessionID,
		UserID:  userID,
		Cookie:  cookie,
		ReqInfo: info,
	}

	// 4. Store under the namespaced key; TTL mirrors the cookie expiry
	key := cache.namespace + ":" + userID + ":" + sessionID
	if err := cache.write(context, key, record, time.Until(cookie.Expires)); err != nil {
		return "", nil, err
	}

	return key, record, nil
}

/*
ReadByKey returns the record under the given storage key.

Description: Misses and I/O failures both yield nil — an unreachable cache
means "not authenticated", never a hard error.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - *SessionRecord: Stored record, or nil on miss
  - error: Always nil (fail-open)
*/
func (cache *RedisSessionCache) ReadByKey(context context.Context, key string) (*SessionRecord, error) {

	payload, err := cache.client.Get(context, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(context, "session_cache_read_failed",
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	var record SessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		cache.logger.WarnContext(context, "session_cache_corrupt_entry",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return &record, nil
}

/*
Refresh slides the session window forward from now.

Description: On hit, advances last-access, recomputes the absolute expiry as
now plus the configured lifetime, and rewrites the entry under the same key
with the refreshed TTL. On miss, nothing happens and no entry is created —
expired and never-existed sessions are indistinguishable.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - *SessionRecord: Refreshed record, or nil on miss
  - error: Always nil (fail-open)
*/
func (cache *RedisSessionCache) Refresh(context context.Context, key string) (*SessionRecord, error) {

	// 1. Read the current record; a miss ends the refresh
	record, err := cache.ReadByKey(context, key)
	if err != nil || record == nil {
		return nil, nil
	}

	// 2. Slide the window: last-access and expiry both move to "now"-based values
	now := time.Now()
	record.ReqInfo.LastAccess = now
	record.Cookie.Expires = now.Add(cache.lifetime)

	// 3. Rewrite under the same key with the refreshed TTL. A failed rewrite
	//    leaves the old entry intact, so the session degrades rather than dies:
	//    the request stays authenticated, only the window did not slide.
	if err := cache.write(context, key, record, cache.lifetime); err != nil {
		cache.logger.WarnContext(context, "session_cache_refresh_failed",
			slog.String("error", err.Error()),
		)
	}

	return record, nil
}

// write serializes and stores a record with the given TTL.
func (cache *RedisSessionCache) write(context context.Context, key string, record *SessionRecord, ttl time.Duration) error {

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("session_cache_write_failed: %w", err)
	}

	return nil
}

// applyCookieOverrides merges non-nil override fields onto the defaults.
func applyCookieOverrides(cookie *CookieOptions, overrides *CookieOverrides) {
	if overrides == nil {
		return
	}
	if overrides.Path != nil {
		cookie.Path = *overrides.Path
	}
	if overrides.HTTPOnly != nil {
		cookie.HTTPOnly = *overrides.HTTPOnly
	}
	if overrides.Secure != nil {
		cookie.Secure = *overrides.Secure
	}
	if overrides.Expires != nil {
		cookie.Expires = *overrides.Expires
	}
}
