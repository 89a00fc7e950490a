// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourclub/velour/internal/access/auth"
	"github.com/velourclub/velour/internal/access/derive"
	"github.com/velourclub/velour/internal/access/guard"
	"github.com/velourclub/velour/internal/access/identity"
	"github.com/velourclub/velour/internal/access/membercode"
	"github.com/velourclub/velour/internal/access/session"
	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/sec"
)

// stubTokens signs nothing; login tests only care about the orchestration.
type stubTokens struct{}

func (stubTokens) GenerateSessionToken(sessionID, email string, role sec.Role, expiresAt time.Time) (string, error) {
	return "token-" + sessionID, nil
}

// fixture wires the full gateway over in-memory stores.
type fixture struct {
	service  *auth.Service
	registry *membercode.Registry
	sessions *session.Manager
	clock    *testClock
}

type testClock struct {
	current time.Time
}

func (clock *testClock) now() time.Time { return clock.current }

func (clock *testClock) advance(d time.Duration) { clock.current = clock.current.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	deriver := derive.New(derive.Config{Secret: "test-secret", Window: 168 * time.Hour, Now: clock.now})
	registry := membercode.NewRegistry(membercode.NewMemoryStore(), membercode.Config{Deriver: deriver, Now: clock.now})
	attemptGuard := guard.New(guard.NewMemoryStore(clock.now), guard.Config{Threshold: 5, LockDuration: 15 * time.Minute, Now: clock.now})
	sessions := session.NewManager(session.NewMemoryStore(), session.Config{TTL: 20 * time.Minute, RenewWithin: 15 * time.Minute, Now: clock.now})

	masterKey, err := sec.NewMasterKey("OPS-MASTER-KEY-9")
	require.NoError(t, err)

	identities := identity.NewMemoryStore()
	require.NoError(t, identities.Create(context.Background(), &identity.Identity{
		ID:    "ident-alice",
		Email: "alice@example.test",
		Role:  sec.RoleMember,
	}))
	require.NoError(t, identities.Create(context.Background(), &identity.Identity{
		ID:    "ident-bob",
		Email: "bob@example.test",
		Role:  sec.RoleMember,
	}))
	require.NoError(t, identities.Create(context.Background(), &identity.Identity{
		ID:    "ident-ops",
		Email: "ops@velour.club",
		Role:  sec.RoleOperator,
	}))

	validator := auth.NewValidator(attemptGuard, registry, masterKey, auth.Config{Now: clock.now})
	service := auth.NewService(identities, validator, sessions, stubTokens{})

	return &fixture{service: service, registry: registry, sessions: sessions, clock: clock}
}

func assertInvalidCredentials(t *testing.T, err error) *apperr.AppError {
	t.Helper()
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INVALID_CREDENTIALS", ae.Code)
	assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
	return ae
}

/*
TestService_MemberLogin verifies the end-to-end happy path: a provisioned
member logs in with their current code and receives a live session.
*/
func TestService_MemberLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	result, err := f.service.Login(ctx, "alice@example.test", entry.CurrentCode)
	require.NoError(t, err)

	assert.Equal(t, "token-"+result.Session.ID, result.Token)
	assert.Equal(t, "ident-alice", result.Session.IdentityID)
	assert.Equal(t, sec.RoleMember, result.Session.Role)
	assert.True(t, f.sessions.IsAlive(ctx, result.Session.ID))
}

/*
TestService_MemberLoginIsCaseInsensitive verifies that both the email and the
code survive casing and whitespace mangling.
*/
func TestService_MemberLoginIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	sloppyEmail := "  ALICE@Example.Test "
	sloppyCode := "  " + lowered(entry.CurrentCode) + " "

	result, err := f.service.Login(ctx, sloppyEmail, sloppyCode)
	require.NoError(t, err)
	assert.Equal(t, "ident-alice", result.Session.IdentityID)
}

func lowered(code string) string {
	out := make([]byte, len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

/*
TestService_LoginConsumesCode verifies single-use semantics: the accepted code
is dead immediately, and the rotated code works instead.
*/
func TestService_LoginConsumesCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)
	firstCode := entry.CurrentCode

	_, err = f.service.Login(ctx, "alice@example.test", firstCode)
	require.NoError(t, err)

	// Replaying the spent code is an ordinary invalid-credentials rejection.
	_, err = f.service.Login(ctx, "alice@example.test", firstCode)
	assertInvalidCredentials(t, err)

	// The rotated code is live.
	rotated, err := f.registry.Get(ctx, "alice@example.test")
	require.NoError(t, err)
	require.NotEqual(t, firstCode, rotated.CurrentCode)

	_, err = f.service.Login(ctx, "alice@example.test", rotated.CurrentCode)
	require.NoError(t, err)
}

/*
TestService_ConcurrentLoginsShareOneCode verifies single-use semantics under
contention: of several logins racing with the same code, exactly one may win.
*/
func TestService_ConcurrentLoginsShareOneCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	var admitted int32
	start := make(chan struct{})

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			if _, err := f.service.Login(ctx, "alice@example.test", entry.CurrentCode); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), admitted)
}

/*
TestService_UnknownEmail verifies the anti-enumeration shape: an unknown email
is indistinguishable from a wrong code.
*/
func TestService_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.Login(ctx, "ghost@example.test", "ABCD-EFGH")
	ae := assertInvalidCredentials(t, err)
	assert.Nil(t, ae.AttemptsRemaining)
}

/*
TestService_UnprovisionedMember verifies that a known member without a registry
entry gets the generic rejection and burns no attempt budget.
*/
func TestService_UnprovisionedMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Well over the lockout threshold.
	for i := 0; i < 8; i++ {
		_, err := f.service.Login(ctx, "alice@example.test", "ABCD-EFGH")
		ae := assertInvalidCredentials(t, err)
		assert.Nil(t, ae.AttemptsRemaining)
	}

	// Once provisioned, login works on the first try: nothing was counted.
	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	_, err = f.service.Login(ctx, "alice@example.test", entry.CurrentCode)
	require.NoError(t, err)
}

/*
TestService_LockoutAfterRepeatedFailures verifies the brute-force contract:
five wrong codes lock the flow, and even the correct code is rejected with a
retry hint until the lock elapses.
*/
func TestService_LockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "bob@example.test")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := f.service.Login(ctx, "bob@example.test", fmt.Sprintf("XXXX-XXX%d", i))
		ae := assertInvalidCredentials(t, err)
		if i < 5 {
			require.NotNil(t, ae.AttemptsRemaining)
			assert.Equal(t, 5-i, *ae.AttemptsRemaining)
		}
	}

	// Correct code while locked: still rejected, and the retry hint is the
	// full lock duration since no time has passed on the fixture clock.
	_, err = f.service.Login(ctx, "bob@example.test", entry.CurrentCode)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "LOCKED", ae.Code)
	assert.Equal(t, http.StatusLocked, ae.HTTPStatus)
	assert.Equal(t, 900, ae.RetryAfterSeconds)

	// Part of the lock served: the hint shrinks accordingly.
	f.clock.advance(5 * time.Minute)
	_, err = f.service.Login(ctx, "bob@example.test", entry.CurrentCode)
	ae = apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 600, ae.RetryAfterSeconds)

	// After the lock elapses the correct code works again.
	f.clock.advance(15*time.Minute + time.Second)
	_, err = f.service.Login(ctx, "bob@example.test", entry.CurrentCode)
	require.NoError(t, err)
}

/*
TestService_LockoutDoesNotSpillAcrossMembers verifies per-flow isolation.
*/
func TestService_LockoutDoesNotSpillAcrossMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.registry.Provision(ctx, "bob@example.test")
	require.NoError(t, err)
	aliceEntry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.service.Login(ctx, "bob@example.test", "XXXX-XXXX")
		require.Error(t, err)
	}

	// Bob is locked; Alice is untouched.
	_, err = f.service.Login(ctx, "alice@example.test", aliceEntry.CurrentCode)
	require.NoError(t, err)
}

/*
TestService_OperatorLogin verifies the master key path, including its own
lockout and the fact that the key never rotates.
*/
func TestService_OperatorLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.service.Login(ctx, "ops@velour.club", "OPS-MASTER-KEY-9")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleOperator, first.Session.Role)

	// No consumption: the same key logs in again immediately.
	second, err := f.service.Login(ctx, "ops@velour.club", "ops-master-key-9")
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)

	// Wrong keys count toward lockout like any other failure.
	for i := 0; i < 5; i++ {
		_, err := f.service.Login(ctx, "ops@velour.club", "WRONG-KEY")
		require.Error(t, err)
	}
	_, err = f.service.Login(ctx, "ops@velour.club", "OPS-MASTER-KEY-9")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "LOCKED", ae.Code)
}

/*
TestService_SuccessResetsAttemptBudget verifies that 4 failures + success + 4
failures never locks.
*/
func TestService_SuccessResetsAttemptBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "bob@example.test")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.service.Login(ctx, "bob@example.test", "XXXX-XXXX")
		require.Error(t, err)
	}

	_, err = f.service.Login(ctx, "bob@example.test", entry.CurrentCode)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		_, err := f.service.Login(ctx, "bob@example.test", "XXXX-XXXX")
		ae := assertInvalidCredentials(t, err)
		require.NotNil(t, ae.AttemptsRemaining)
		assert.Equal(t, 5-i, *ae.AttemptsRemaining)
	}
}

/*
TestService_LogoutAndExtend verifies session lifecycle through the gateway.
*/
func TestService_LogoutAndExtend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.Provision(ctx, "alice@example.test")
	require.NoError(t, err)

	result, err := f.service.Login(ctx, "alice@example.test", entry.CurrentCode)
	require.NoError(t, err)

	// Activity near the end of life pushes the expiry.
	f.clock.advance(10 * time.Minute)
	extended, err := f.service.Extend(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.now().Add(20*time.Minute), extended.ExpiresAt)

	require.NoError(t, f.service.Logout(ctx, result.Session.ID))
	assert.False(t, f.sessions.IsAlive(ctx, result.Session.ID))

	// Logout is idempotent.
	assert.NoError(t, f.service.Logout(ctx, result.Session.ID))

	_, err = f.service.Inspect(ctx, result.Session.ID)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "SESSION_EXPIRED", ae.Code)
}
