// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velourclub/velour/internal/platform/constants"
)

// RedisStore implements [Store] on Redis.
//
// # Atomicity
//
// INCR is atomic per key on the server, which gives the linearizable counter
// the lockout invariant requires even with multiple API replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed attempt store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

/*
Increment adds one failure to the key's counter and refreshes its TTL.

Parameters:
  - ctx: context.Context
  - key: string
  - ttl: time.Duration

Returns:
  - int: Post-increment failure count
  - error: Connectivity failures
*/
func (store *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	attemptsKey := constants.RedisPrefixAttempts + key

	// INCR + EXPIRE in one round trip
	pipe := store.client.TxPipeline()
	incr := pipe.Incr(ctx, attemptsKey)
	pipe.Expire(ctx, attemptsKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis_guard_increment_failed: %w", err)
	}

	return int(incr.Val()), nil
}

/*
Lock marks the key as locked until the given instant.

Parameters:
  - ctx: context.Context
  - key: string
  - until: time.Time

Returns:
  - error: Connectivity failures
*/
func (store *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	lockKey := constants.RedisPrefixLock + key

	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	value := strconv.FormatInt(until.Unix(), 10)
	if err := store.client.Set(ctx, lockKey, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis_guard_lock_failed: %w", err)
	}

	return nil
}

/*
State returns the current attempt state for the key.

Description: Missing keys yield the zero State; Redis TTL expiry doubles as
the natural decay of stale counters and elapsed locks.

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - State: Current counter and lock expiry
  - error: Connectivity failures
*/
func (store *RedisStore) State(ctx context.Context, key string) (State, error) {
	attemptsKey := constants.RedisPrefixAttempts + key
	lockKey := constants.RedisPrefixLock + key

	pipe := store.client.Pipeline()
	countCmd := pipe.Get(ctx, attemptsKey)
	lockCmd := pipe.Get(ctx, lockKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return State{}, fmt.Errorf("redis_guard_state_failed: %w", err)
	}

	var state State

	if raw, err := countCmd.Result(); err == nil {
		count, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return State{}, fmt.Errorf("redis_guard_state_corrupt_counter: %w", parseErr)
		}
		state.FailureCount = count
	}

	if raw, err := lockCmd.Result(); err == nil {
		unix, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return State{}, fmt.Errorf("redis_guard_state_corrupt_lock: %w", parseErr)
		}
		state.LockedUntil = time.Unix(unix, 0)
	}

	return state, nil
}

/*
Clear removes the counter and any lock for the key.

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - error: Connectivity failures
*/
func (store *RedisStore) Clear(ctx context.Context, key string) error {
	attemptsKey := constants.RedisPrefixAttempts + key
	lockKey := constants.RedisPrefixLock + key

	if err := store.client.Del(ctx, attemptsKey, lockKey).Err(); err != nil {
		return fmt.Errorf("redis_guard_clear_failed: %w", err)
	}

	return nil
}
