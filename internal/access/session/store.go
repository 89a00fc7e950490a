// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package session

import (
	"context"
	"time"
)

// # Session Data Access

// Store defines the keyed session persistence contract.
type Store interface {

	/*
		Create persists a freshly issued session.

		Parameters:
		  - ctx: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(ctx context.Context, session *Session) error

	/*
		Find returns the session with the given ID.

		Description: A missing session yields apperr.SessionExpired so callers
		never learn whether the ID was revoked, expired, or invented.

		Parameters:
		  - ctx: context.Context
		  - sessionID: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.SessionExpired or storage failures
	*/
	Find(ctx context.Context, sessionID string) (*Session, error)

	/*
		SetExpiry updates the session's absolute expiry in place.

		Parameters:
		  - ctx: context.Context
		  - sessionID: string
		  - expiresAt: time.Time

		Returns:
		  - error: apperr.SessionExpired if already gone, or storage failures
	*/
	SetExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error

	/*
		Delete removes the session. Deleting an unknown ID is a no-op.

		Parameters:
		  - ctx: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(ctx context.Context, sessionID string) error

	/*
		DeleteExpired removes every session whose expiry is in the past.

		Parameters:
		  - ctx: context.Context

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(ctx context.Context) error
}
