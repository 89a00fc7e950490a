// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package guard implements per-key brute-force lockout for login flows.

Every failed credential validation increments a counter for the flow's key
(the canonical email). Reaching the threshold locks the key for a fixed
duration; while locked, every attempt is rejected before any code comparison
happens.

Architecture:

  - Guard: Policy layer (threshold, lock duration) over a keyed [Store].
  - Store: Per-key atomic counter + lock record. In-memory for tests and
    single-node deployments, Redis when login state must be shared.

The counter resets on success or when a lock naturally elapses — a member
who eventually remembers their code starts from a clean slate.
*/
package guard

import (
	"context"
	"time"
)

// State is the attempt record for a single login-flow key.
type State struct {
	// FailureCount is the number of consecutive failed validations.
	FailureCount int

	// LockedUntil is the lock expiry. Zero means the key is not locked.
	LockedUntil time.Time
}

// Guard enforces the lockout policy over a keyed attempt store.
type Guard struct {
	store     Store
	threshold int
	lockFor   time.Duration
	now       func() time.Time
}

// Config carries the lockout policy.
type Config struct {
	// Threshold is the failure count that triggers a lock (e.g. 5).
	Threshold int

	// LockDuration is how long a locked key rejects all attempts (e.g. 15m).
	LockDuration time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// New constructs a [Guard] with the given policy and backing store.
func New(store Store, cfg Config) *Guard {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Guard{
		store:     store,
		threshold: cfg.Threshold,
		lockFor:   cfg.LockDuration,
		now:       now,
	}
}

/*
RecordFailure registers one failed validation attempt for the key.

Description: Increments the counter; crossing the threshold sets the lock.
A lock that has already elapsed is cleared first, so the fresh failure starts
a new counting run rather than extending a dead lock.

Parameters:
  - ctx: context.Context
  - key: string (canonical login-flow key)

Returns:
  - State: Post-increment attempt state
  - error: Storage failures
*/
func (guard *Guard) RecordFailure(ctx context.Context, key string) (State, error) {
	now := guard.now()

	// An elapsed lock means the previous run is over.
	state, err := guard.store.State(ctx, key)
	if err != nil {
		return State{}, err
	}
	if !state.LockedUntil.IsZero() && !now.Before(state.LockedUntil) {
		if err := guard.store.Clear(ctx, key); err != nil {
			return State{}, err
		}
	}

	// Keep counters around exactly as long as a lock would last; an idle
	// key decays back to zero on its own.
	count, err := guard.store.Increment(ctx, key, guard.lockFor)
	if err != nil {
		return State{}, err
	}

	result := State{FailureCount: count}

	if count >= guard.threshold {
		until := now.Add(guard.lockFor)
		if err := guard.store.Lock(ctx, key, until); err != nil {
			return State{}, err
		}
		result.LockedUntil = until
	}

	return result, nil
}

/*
RecordSuccess clears all attempt state for the key.

Description: Reset is atomic with respect to the key: a successful validation
leaves no residue that a later run of failures could build on.

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - error: Storage failures
*/
func (guard *Guard) RecordSuccess(ctx context.Context, key string) error {
	return guard.store.Clear(ctx, key)
}

/*
IsLocked reports whether the key is currently locked.

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - bool: true while now < lockedUntil
  - time.Time: The lock expiry (zero when unlocked)
  - error: Storage failures
*/
func (guard *Guard) IsLocked(ctx context.Context, key string) (bool, time.Time, error) {
	state, err := guard.store.State(ctx, key)
	if err != nil {
		return false, time.Time{}, err
	}

	if state.LockedUntil.IsZero() || !guard.now().Before(state.LockedUntil) {
		return false, time.Time{}, nil
	}

	return true, state.LockedUntil, nil
}

// Threshold returns the configured failure count that triggers a lock.
func (guard *Guard) Threshold() int {
	return guard.threshold
}

/*
AttemptsRemaining reports how many failures the key can still absorb before
locking.

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - int: Remaining attempts, never negative
  - error: Storage failures
*/
func (guard *Guard) AttemptsRemaining(ctx context.Context, key string) (int, error) {
	state, err := guard.store.State(ctx, key)
	if err != nil {
		return 0, err
	}

	remaining := guard.threshold - state.FailureCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
