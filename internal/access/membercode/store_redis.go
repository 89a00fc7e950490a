// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package membercode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/constants"
)

// RedisStore implements [Store] on Redis.
//
// Member code entries have no natural TTL: a provisioned member keeps a
// current code indefinitely, so records persist until explicitly deleted.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed member-code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

/*
Get returns the entry keyed by the canonical email.

Parameters:
  - ctx: context.Context
  - email: string (canonical)

Returns:
  - *Entry: Hydrated entry
  - error: apperr.NotFound or connectivity failures
*/
func (store *RedisStore) Get(ctx context.Context, email string) (*Entry, error) {
	key := constants.RedisPrefixMemberCode + email

	payload, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Member code")
		}
		return nil, fmt.Errorf("redis_membercode_get_failed: %w", err)
	}

	entry := &Entry{}
	if err := json.Unmarshal(payload, entry); err != nil {
		return nil, fmt.Errorf("redis_membercode_unmarshal_failed: %w", err)
	}

	return entry, nil
}

/*
Put creates or replaces the entry for its email.

Parameters:
  - ctx: context.Context
  - entry: *Entry

Returns:
  - error: Serialization or connectivity failures
*/
func (store *RedisStore) Put(ctx context.Context, entry *Entry) error {
	key := constants.RedisPrefixMemberCode + entry.Email

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis_membercode_marshal_failed: %w", err)
	}

	if err := store.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis_membercode_put_failed: %w", err)
	}

	return nil
}

// maxUpdateAttempts bounds the optimistic-concurrency retry loop in Update.
const maxUpdateAttempts = 8

/*
Update atomically applies mutate to the entry keyed by the canonical email.

Description: The entry key is WATCHed and the write goes through a MULTI/EXEC
transaction, so a concurrent write to the same key between the read and the
write aborts the transaction and the whole read-mutate-write cycle is retried.

Parameters:
  - ctx: context.Context
  - email: string (canonical)
  - mutate: func(*Entry) (*Entry, error) — may return nil to leave the entry unchanged

Returns:
  - *Entry: The entry as persisted (or as read, when unchanged)
  - error: apperr.NotFound, mutate's error, or connectivity failures
*/
func (store *RedisStore) Update(ctx context.Context, email string, mutate func(*Entry) (*Entry, error)) (*Entry, error) {
	key := constants.RedisPrefixMemberCode + email
	var updated *Entry

	transact := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return apperr.NotFound("Member code")
			}
			return fmt.Errorf("redis_membercode_update_get_failed: %w", err)
		}

		entry := &Entry{}
		if err := json.Unmarshal(payload, entry); err != nil {
			return fmt.Errorf("redis_membercode_update_unmarshal_failed: %w", err)
		}

		next, err := mutate(entry)
		if err != nil {
			return err
		}
		if next == nil {
			updated = entry
			return nil
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("redis_membercode_update_marshal_failed: %w", err)
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		}); err != nil {
			return err
		}

		updated = next
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := store.client.Watch(ctx, transact, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("redis_membercode_update_contended: %s", email)
}

/*
Delete removes the entry. Unknown emails are a no-op.

Parameters:
  - ctx: context.Context
  - email: string (canonical)

Returns:
  - error: Connectivity failures
*/
func (store *RedisStore) Delete(ctx context.Context, email string) error {
	key := constants.RedisPrefixMemberCode + email

	if err := store.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis_membercode_delete_failed: %w", err)
	}

	return nil
}

/*
ListPending scans the member-code keyspace and returns pending entries.

Description: SCAN-based iteration keeps the listing non-blocking on large
keyspaces; the operator dashboard tolerates the weak consistency of SCAN.

Parameters:
  - ctx: context.Context

Returns:
  - []*Entry: Entries awaiting dispatch, ordered by email
  - error: Connectivity failures
*/
func (store *RedisStore) ListPending(ctx context.Context) ([]*Entry, error) {
	pending := make([]*Entry, 0)

	iter := store.client.Scan(ctx, 0, constants.RedisPrefixMemberCode+"*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := store.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// The entry may have been deleted between SCAN and GET.
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis_membercode_list_get_failed: %w", err)
		}

		entry := &Entry{}
		if err := json.Unmarshal(payload, entry); err != nil {
			return nil, fmt.Errorf("redis_membercode_list_unmarshal_failed: %w", err)
		}

		if entry.PendingNotify {
			pending = append(pending, entry)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis_membercode_list_scan_failed: %w", err)
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Email < pending[j].Email })
	return pending, nil
}
