// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/constants"
)

// RedisStore implements [Store] on Redis.
//
// # Expiry
//
// Each session record carries a Redis TTL equal to its remaining lifetime,
// so natural expiry needs no sweep at all — DeleteExpired is a no-op here.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

/*
Create persists a freshly issued session with TTL until its expiry.

Parameters:
  - ctx: context.Context
  - session: *Session

Returns:
  - error: Serialization or connectivity failures
*/
func (store *RedisStore) Create(ctx context.Context, session *Session) error {
	key := constants.RedisPrefixSession + session.ID

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperr.SessionExpired()
	}

	if err := store.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_create_failed: %w", err)
	}

	return nil
}

/*
Find returns the session with the given ID.

Description: Redis TTL expiry and explicit revocation both surface as
apperr.SessionExpired — indistinguishable to the caller.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.SessionExpired or connectivity failures
*/
func (store *RedisStore) Find(ctx context.Context, sessionID string) (*Session, error) {
	key := constants.RedisPrefixSession + sessionID

	payload, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.SessionExpired()
		}
		return nil, fmt.Errorf("redis_session_find_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("redis_session_unmarshal_failed: %w", err)
	}

	return session, nil
}

/*
SetExpiry rewrites the session with its new expiry and matching TTL.

Parameters:
  - ctx: context.Context
  - sessionID: string
  - expiresAt: time.Time

Returns:
  - error: apperr.SessionExpired if already gone, or connectivity failures
*/
func (store *RedisStore) SetExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	session, err := store.Find(ctx, sessionID)
	if err != nil {
		return err
	}

	session.ExpiresAt = expiresAt

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	key := constants.RedisPrefixSession + sessionID
	if err := store.client.Set(ctx, key, payload, time.Until(expiresAt)).Err(); err != nil {
		return fmt.Errorf("redis_session_set_expiry_failed: %w", err)
	}

	return nil
}

/*
Delete removes the session. Unknown IDs are a no-op.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - error: Connectivity failures
*/
func (store *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key := constants.RedisPrefixSession + sessionID

	if err := store.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}

	return nil
}

// DeleteExpired is a no-op: Redis TTLs already reclaim dead sessions.
func (store *RedisStore) DeleteExpired(_ context.Context) error {
	return nil
}
