// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package identity provides the read-mostly directory of provisioned identities.

Identities are created by out-of-band onboarding tooling and are immutable as
far as the access subsystem is concerned: login resolves them, never edits
them. The email is the canonical, case-insensitive key (see pkg/mailkey).

Architecture:

  - Identity: The domain entity with its two-variant role.
  - Store: Postgres-backed directory in production, in-memory for tests.
*/
package identity

import (
	"context"
	"time"

	"github.com/velourclub/velour/internal/platform/sec"
)

// # Domain Entities

// Identity represents a provisioned member or operator of the club.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        sec.Role  `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Directory Data Access

// Store defines the data access contract for the identity directory.
type Store interface {

	/*
		FindByEmail returns the identity keyed by the canonical email.

		Description: Callers must pass the mailkey-normalized address; the
		store performs no additional folding.

		Parameters:
		  - ctx: context.Context
		  - email: string (canonical)

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	/*
		FindByID returns the identity with the given ID.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*Identity, error)

	/*
		Create persists a new identity. Used by provisioning tooling and tests,
		never by the login path.

		Parameters:
		  - ctx: context.Context
		  - identity: *Identity

		Returns:
		  - error: apperr.Conflict on duplicate email, or storage failures
	*/
	Create(ctx context.Context, identity *Identity) error
}
