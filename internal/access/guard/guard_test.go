// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourclub/velour/internal/access/guard"
)

// testClock is a manually advanced clock shared by a test's guard instance.
type testClock struct {
	current time.Time
}

func (clock *testClock) now() time.Time { return clock.current }

func (clock *testClock) advance(d time.Duration) { clock.current = clock.current.Add(d) }

func newTestGuard(threshold int, lockFor time.Duration) (*guard.Guard, *testClock) {
	clock := &testClock{current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	g := guard.New(guard.NewMemoryStore(clock.now), guard.Config{
		Threshold:    threshold,
		LockDuration: lockFor,
		Now:          clock.now,
	})
	return g, clock
}

/*
TestGuard_LocksAtThreshold verifies that the Nth consecutive failure locks the key.
*/
func TestGuard_LocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	g, clock := newTestGuard(5, 15*time.Minute)

	// 1. Four failures: counted but not locked
	for i := 1; i <= 4; i++ {
		state, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
		assert.Equal(t, i, state.FailureCount)
		assert.True(t, state.LockedUntil.IsZero())
	}

	// 2. Fifth failure: locked for the full duration
	state, err := g.RecordFailure(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 5, state.FailureCount)
	assert.Equal(t, clock.now().Add(15*time.Minute), state.LockedUntil)

	locked, until, err := g.IsLocked(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, state.LockedUntil, until)
}

/*
TestGuard_SuccessResetsCounter verifies that one success clears all residue:
4 failures + success + 4 failures must never lock.
*/
func TestGuard_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(5, 15*time.Minute)

	for i := 0; i < 4; i++ {
		_, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
	}

	require.NoError(t, g.RecordSuccess(ctx, "bob@example.test"))

	for i := 1; i <= 4; i++ {
		state, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
		assert.Equal(t, i, state.FailureCount)
		assert.True(t, state.LockedUntil.IsZero())
	}

	locked, _, err := g.IsLocked(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.False(t, locked)
}

/*
TestGuard_LockElapses verifies that a lock expires on its own and the next
failure starts a fresh counting run.
*/
func TestGuard_LockElapses(t *testing.T) {
	ctx := context.Background()
	g, clock := newTestGuard(3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		_, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
	}

	locked, _, err := g.IsLocked(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.True(t, locked)

	// 1. One second before expiry: still locked
	clock.advance(10*time.Minute - time.Second)
	locked, _, err = g.IsLocked(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.True(t, locked)

	// 2. Past expiry: unlocked without any explicit clear
	clock.advance(2 * time.Second)
	locked, _, err = g.IsLocked(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.False(t, locked)

	// 3. A new failure counts from one, not from the stale run
	state, err := g.RecordFailure(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 1, state.FailureCount)
	assert.True(t, state.LockedUntil.IsZero())
}

/*
TestGuard_CounterDecays verifies that an idle failure counter expires on its
own: after the decay window passes with no further failures, the key is back
to a full attempt budget and the next failure counts from one.
*/
func TestGuard_CounterDecays(t *testing.T) {
	ctx := context.Background()
	g, clock := newTestGuard(3, 10*time.Minute)

	// 1. Two failures, one short of the threshold
	for i := 0; i < 2; i++ {
		_, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
	}

	remaining, err := g.AttemptsRemaining(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// 2. The counter outlives its decay window
	clock.advance(10*time.Minute + time.Second)

	remaining, err = g.AttemptsRemaining(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	// 3. A fresh failure starts a new run
	state, err := g.RecordFailure(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 1, state.FailureCount)
	assert.True(t, state.LockedUntil.IsZero())
}

/*
TestGuard_KeysAreIndependent verifies that one member's failures never affect another.
*/
func TestGuard_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		_, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)
	}

	locked, _, err := g.IsLocked(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.False(t, locked)

	remaining, err := g.AttemptsRemaining(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

/*
TestGuard_AttemptsRemaining verifies the countdown and its floor at zero.
*/
func TestGuard_AttemptsRemaining(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(3, 10*time.Minute)

	remaining, err := g.AttemptsRemaining(ctx, "bob@example.test")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	for want := 2; want >= 0; want-- {
		_, err := g.RecordFailure(ctx, "bob@example.test")
		require.NoError(t, err)

		remaining, err = g.AttemptsRemaining(ctx, "bob@example.test")
		require.NoError(t, err)
		assert.Equal(t, want, remaining)
	}
}
