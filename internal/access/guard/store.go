// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package guard

import (
	"context"
	"time"
)

// # Attempt Data Access

// Store defines the keyed attempt-state contract.
//
// # Concurrency
//
// Implementations must make Increment atomic per key: two concurrent failures
// for the same key must observe distinct counts, never a lost update.
type Store interface {

	/*
		Increment adds one failure to the key's counter and returns the new count.

		Description: The counter's lifetime is refreshed to ttl on every call so
		an idle key eventually decays to zero without explicit cleanup.

		Parameters:
		  - ctx: context.Context
		  - key: string
		  - ttl: time.Duration

		Returns:
		  - int: Post-increment failure count
		  - error: Storage failures
	*/
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)

	/*
		Lock marks the key as locked until the given instant.

		Parameters:
		  - ctx: context.Context
		  - key: string
		  - until: time.Time

		Returns:
		  - error: Storage failures
	*/
	Lock(ctx context.Context, key string, until time.Time) error

	/*
		State returns the current attempt state for the key.

		Description: A key with no record yields the zero State, not an error.

		Parameters:
		  - ctx: context.Context
		  - key: string

		Returns:
		  - State: Current counter and lock expiry
		  - error: Storage failures
	*/
	State(ctx context.Context, key string) (State, error)

	/*
		Clear removes the counter and any lock for the key.

		Parameters:
		  - ctx: context.Context
		  - key: string

		Returns:
		  - error: Storage failures
	*/
	Clear(ctx context.Context, key string) error
}
