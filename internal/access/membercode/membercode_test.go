// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package membercode_test

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourclub/velour/internal/access/derive"
	"github.com/velourclub/velour/internal/access/membercode"
	"github.com/velourclub/velour/internal/platform/apperr"
)

var codeShape = regexp.MustCompile(`^[2-9A-HJ-NP-Z]{4}-[2-9A-HJ-NP-Z]{4}$`)

func newTestRegistry() *membercode.Registry {
	clock := func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	deriver := derive.New(derive.Config{
		Secret: "test-secret",
		Window: 168 * time.Hour,
		Now:    clock,
	})
	return membercode.NewRegistry(membercode.NewMemoryStore(), membercode.Config{
		Deriver: deriver,
		Now:     clock,
	})
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)
}

/*
TestRegistry_ProvisionIsIdempotent verifies that provisioning twice never
rotates an existing code.
*/
func TestRegistry_ProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	first, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.Regexp(t, codeShape, first.CurrentCode)
	assert.True(t, first.PendingNotify)
	assert.Nil(t, first.LastUsedAt)

	second, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.Equal(t, first.CurrentCode, second.CurrentCode)
}

/*
TestRegistry_ProvisionUsesCurrentWindow verifies that the initial code matches
the operator's current-window preview.
*/
func TestRegistry_ProvisionUsesCurrentWindow(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	entry, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	preview := registry.PreviewWindows("alice@example.test")
	assert.Equal(t, preview.Current, entry.CurrentCode)
	assert.NotEqual(t, preview.Previous, preview.Current)
	assert.NotEqual(t, preview.Current, preview.Next)
}

/*
TestRegistry_ProvisionNormalizesEmail verifies that provisioning keys by the
canonical address regardless of input casing.
*/
func TestRegistry_ProvisionNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	first, err := registry.Provision(ctx, "Alice@Example.Test")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.test", first.Email)

	// Same member under a different casing: same entry.
	second, err := registry.Provision(ctx, "ALICE@EXAMPLE.TEST")
	require.NoError(t, err)
	assert.Equal(t, first.CurrentCode, second.CurrentCode)
}

/*
TestRegistry_ConsumeRotates verifies that consuming the current code replaces
it, stamps last-use, and re-flags the entry for notification.
*/
func TestRegistry_ConsumeRotates(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	provisioned, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	require.NoError(t, registry.ClearNotify(ctx, "alice@example.test"))

	rotated, accepted, err := registry.Consume(ctx, "alice@example.test", provisioned.CurrentCode)
	require.NoError(t, err)
	require.True(t, accepted)

	assert.NotEqual(t, provisioned.CurrentCode, rotated.CurrentCode)
	assert.Regexp(t, codeShape, rotated.CurrentCode)
	assert.True(t, rotated.PendingNotify)
	require.NotNil(t, rotated.LastUsedAt)

	// The old code is gone from the registry entirely.
	current, err := registry.Get(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.Equal(t, rotated.CurrentCode, current.CurrentCode)
}

/*
TestRegistry_ConsumeWrongCode verifies that a non-matching submission leaves
the entry untouched: no rotation, no last-use stamp, no notify flag.
*/
func TestRegistry_ConsumeWrongCode(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	provisioned, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	require.NoError(t, registry.ClearNotify(ctx, "alice@example.test"))

	entry, accepted, err := registry.Consume(ctx, "alice@example.test", "2222-3333")
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, provisioned.CurrentCode, entry.CurrentCode)

	current, err := registry.Get(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.Equal(t, provisioned.CurrentCode, current.CurrentCode)
	assert.Nil(t, current.LastUsedAt)
	assert.False(t, current.PendingNotify)
}

/*
TestRegistry_ConsumeIsSingleUse verifies that concurrent consumption of the
same code admits exactly one caller: the compare and the rotation are one
atomic store operation, so every other caller compares against the already
rotated code and misses.
*/
func TestRegistry_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	provisioned, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var winners int32
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, accepted, err := registry.Consume(ctx, "alice@example.test", provisioned.CurrentCode)
			assert.NoError(t, err)
			if accepted {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

/*
TestRegistry_ConsumeUnknownEmail verifies that consuming an unprovisioned email
is an explicit NotFound, never a silent create.
*/
func TestRegistry_ConsumeUnknownEmail(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	_, _, err := registry.Consume(ctx, "ghost@example.test", "2222-3333")
	assertNotFound(t, err)

	// The failed consume must not have provisioned anything.
	_, err = registry.Get(ctx, "ghost@example.test")
	assertNotFound(t, err)
}

/*
TestRegistry_ClearNotify verifies acknowledgment and its NotFound edge.
*/
func TestRegistry_ClearNotify(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	_, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	require.NoError(t, registry.ClearNotify(ctx, "alice@example.test"))

	entry, err := registry.Get(ctx, "alice@example.test")
	require.NoError(t, err)
	assert.False(t, entry.PendingNotify)

	assertNotFound(t, registry.ClearNotify(ctx, "ghost@example.test"))
}

/*
TestRegistry_ListPending verifies that only unacknowledged entries are listed.
*/
func TestRegistry_ListPending(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry()

	_, err := registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	_, err = registry.Provision(ctx, "bob@example.test")
	require.NoError(t, err)

	require.NoError(t, registry.ClearNotify(ctx, "alice@example.test"))

	pending, err := registry.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob@example.test", pending[0].Email)

	// Consumption puts a member back on the dispatch list.
	alice, err := registry.Get(ctx, "alice@example.test")
	require.NoError(t, err)
	_, accepted, err := registry.Consume(ctx, "alice@example.test", alice.CurrentCode)
	require.NoError(t, err)
	require.True(t, accepted)

	pending, err = registry.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
