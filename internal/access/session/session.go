// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package session implements session issuance, renewal-on-activity, and expiry.

A session has one absolute expiry timestamp. Validity is always a lazy time
comparison against that timestamp — there is no countdown timer acting as a
source of truth. Qualifying activity extends the expiry in place; logout or
natural expiry ends the session terminally, and only a fresh login can mint
a new one.

Architecture:

  - Manager: TTL and renewal policy over a keyed [Store].
  - Store: In-memory for tests, Redis (native TTL) for shared deployments.
*/
package session

import (
	"context"
	"time"

	"github.com/velourclub/velour/internal/access/identity"
	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/sec"
	"github.com/velourclub/velour/pkg/uuid"
)

// # Domain Entities

// Session represents an authenticated presence of one identity.
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Role       sec.Role  `json:"role"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Manager owns the session lifecycle policy.
type Manager struct {
	store       Store
	ttl         time.Duration
	renewWithin time.Duration
	now         func() time.Time
}

// Config carries the session lifetime policy.
type Config struct {
	// TTL is the validity window granted at issue and on every extension.
	TTL time.Duration

	// RenewWithin is the remaining-lifetime threshold below which Extend
	// actually pushes the expiry. Above it, Extend is a no-op — an active
	// user with plenty of runway causes no store churn.
	RenewWithin time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// NewManager constructs a [Manager] over the given store.
func NewManager(store Store, cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:       store,
		ttl:         cfg.TTL,
		renewWithin: cfg.RenewWithin,
		now:         now,
	}
}

// # Lifecycle

/*
Issue creates a new active session for the identity.

Parameters:
  - ctx: context.Context
  - who: *identity.Identity

Returns:
  - *Session: Active session with expiresAt = now + TTL
  - error: Storage failures
*/
func (manager *Manager) Issue(ctx context.Context, who *identity.Identity) (*Session, error) {
	now := manager.now()

	session := &Session{
		ID:         uuid.New(),
		IdentityID: who.ID,
		Email:      who.Email,
		Role:       who.Role,
		IssuedAt:   now,
		ExpiresAt:  now.Add(manager.ttl),
	}

	if err := manager.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

/*
Validate returns the session if it is still alive.

Description: A session past its expiry is treated as absent — the caller
cannot distinguish "expired" from "never existed", and neither can re-validate
it without a fresh login.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *Session: The live session
  - error: apperr.SessionExpired or storage failures
*/
func (manager *Manager) Validate(ctx context.Context, sessionID string) (*Session, error) {
	session, err := manager.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !manager.now().Before(session.ExpiresAt) {
		// Fail closed and clean up lazily.
		_ = manager.store.Delete(ctx, sessionID)
		return nil, apperr.SessionExpired()
	}

	return session, nil
}

/*
Extend pushes the session's expiry forward on qualifying activity.

Description: Only fires when remaining lifetime has dropped below the renewal
threshold; otherwise the session is returned unchanged. An extension never
shortens a session, and an expired session cannot be revived.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *Session: Session with its (possibly updated) expiry
  - error: apperr.SessionExpired or storage failures
*/
func (manager *Manager) Extend(ctx context.Context, sessionID string) (*Session, error) {
	session, err := manager.Validate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := manager.now()
	if session.ExpiresAt.Sub(now) > manager.renewWithin {
		return session, nil
	}

	session.ExpiresAt = now.Add(manager.ttl)
	if err := manager.store.SetExpiry(ctx, sessionID, session.ExpiresAt); err != nil {
		return nil, err
	}

	return session, nil
}

/*
Revoke terminates the session immediately, regardless of remaining TTL.

Description: Idempotent — revoking an unknown or already-dead session is not
an error, matching logout semantics.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - error: Storage failures
*/
func (manager *Manager) Revoke(ctx context.Context, sessionID string) error {
	return manager.store.Delete(ctx, sessionID)
}

/*
IsAlive reports whether the session currently validates.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - bool: true iff Validate would succeed
*/
func (manager *Manager) IsAlive(ctx context.Context, sessionID string) bool {
	_, err := manager.Validate(ctx, sessionID)
	return err == nil
}

/*
DeleteExpired sweeps dead sessions from the store.

Description: Expiry is enforced lazily on access; this sweep only reclaims
memory and is invoked on a fixed interval by the application.

Parameters:
  - ctx: context.Context

Returns:
  - error: Storage failures
*/
func (manager *Manager) DeleteExpired(ctx context.Context) error {
	return manager.store.DeleteExpired(ctx)
}
