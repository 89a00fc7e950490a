// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package membercode implements the operator-facing registry of single-use
member access codes.

A member's current code is the ONLY credential the login path accepts for the
member role. After a successful login the code is consumed: the registry
replaces it with a fresh random draw and flags the entry pending-notify until
an operator dispatches the new code to the member out of band.

Architecture:

  - Registry: Rotation and notification policy over a keyed [Store].
  - Provisioning: The FIRST code for a member is the current-window derived
    code, so onboarding works password-less: the operator reads it off the
    preview, tells the member, and never has to invent a secret.
  - Rotation: Every later code is an independent random draw — single-use
    codes must not be derivable from their predecessors.
*/
package membercode

import (
	"context"
	"time"

	"github.com/velourclub/velour/internal/access/derive"
	"github.com/velourclub/velour/pkg/mailkey"
)

// # Domain Entities

// Entry is the registry record for one member.
type Entry struct {
	Email         string     `json:"email"`
	CurrentCode   string     `json:"current_code"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	PendingNotify bool       `json:"pending_notify"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Preview bundles the derived codes of adjacent windows for operator tooling.
type Preview struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Next     string `json:"next"`
}

// Registry owns member code provisioning, rotation, and notification state.
type Registry struct {
	store   Store
	deriver *derive.Deriver
	now     func() time.Time
}

// Config carries the registry dependencies.
type Config struct {
	// Deriver supplies the initial provisioning code (current window).
	Deriver *derive.Deriver

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// NewRegistry constructs a [Registry] over the given store.
func NewRegistry(store Store, cfg Config) *Registry {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:   store,
		deriver: cfg.Deriver,
		now:     now,
	}
}

// # Operations

/*
Provision lazily creates the member's code entry.

Description: Idempotent — if the member already has an entry, its existing
code is returned untouched. An unconsumed code is never silently overwritten;
rotation happens only through [Registry.Consume].

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - *Entry: The (new or existing) registry entry
  - error: Storage failures
*/
func (registry *Registry) Provision(ctx context.Context, email string) (*Entry, error) {
	key := mailkey.Normalize(email)

	existing, err := registry.store.Get(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	entry := &Entry{
		Email:         key,
		CurrentCode:   registry.deriver.Derive(key, 0),
		PendingNotify: true,
		CreatedAt:     registry.now(),
	}

	if err := registry.store.Put(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

/*
Consume compares the submitted code against the member's current code and, on
a match, rotates it in the same atomic store operation.

Description: The comparison and the rotation happen inside a single
[Store.Update], so two concurrent logins presenting the same code can never
both be accepted: whichever runs second compares against the already-rotated
code and misses. An accepted code is gone forever — a new random code replaces
it, lastUsedAt is stamped, and the entry is flagged pending-notify so an
operator knows to send the member their next code.

Parameters:
  - ctx: context.Context
  - email: string
  - submitted: string (the code presented at login, any case or spacing)

Returns:
  - *Entry: The registry entry (rotated when accepted, untouched otherwise)
  - bool: Whether the submitted code matched and was consumed
  - error: apperr.NotFound on an unprovisioned email, or storage failures
*/
func (registry *Registry) Consume(ctx context.Context, email, submitted string) (*Entry, bool, error) {
	key := mailkey.Normalize(email)
	accepted := false

	entry, err := registry.store.Update(ctx, key, func(current *Entry) (*Entry, error) {
		if derive.Normalize(submitted) != derive.Normalize(current.CurrentCode) {
			return nil, nil
		}

		nextCode, err := derive.GenerateCode()
		if err != nil {
			return nil, err
		}

		usedAt := registry.now()
		current.CurrentCode = nextCode
		current.LastUsedAt = &usedAt
		current.PendingNotify = true
		accepted = true
		return current, nil
	})
	if err != nil {
		return nil, false, err
	}

	return entry, accepted, nil
}

/*
Get returns the member's registry entry.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - *Entry: Hydrated entry
  - error: apperr.NotFound or storage failures
*/
func (registry *Registry) Get(ctx context.Context, email string) (*Entry, error) {
	return registry.store.Get(ctx, mailkey.Normalize(email))
}

/*
ClearNotify acknowledges that the member has been sent their current code.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - error: apperr.NotFound on an unprovisioned email, or storage failures
*/
func (registry *Registry) ClearNotify(ctx context.Context, email string) error {
	key := mailkey.Normalize(email)

	entry, err := registry.store.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.PendingNotify = false
	return registry.store.Put(ctx, entry)
}

/*
ListPending returns every entry awaiting notification dispatch.

Parameters:
  - ctx: context.Context

Returns:
  - []*Entry: Entries with pendingNotify set
  - error: Storage failures
*/
func (registry *Registry) ListPending(ctx context.Context) ([]*Entry, error) {
	return registry.store.ListPending(ctx)
}

/*
PreviewWindows derives the previous, current, and next window codes for the
member without touching any state.

Parameters:
  - email: string

Returns:
  - Preview: The three adjacent window codes
*/
func (registry *Registry) PreviewWindows(email string) Preview {
	key := mailkey.Normalize(email)
	return Preview{
		Previous: registry.deriver.Derive(key, -1),
		Current:  registry.deriver.Derive(key, 0),
		Next:     registry.deriver.Derive(key, 1),
	}
}
