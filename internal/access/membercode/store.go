// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package membercode

import (
	"context"
	"errors"
	"net/http"

	"github.com/velourclub/velour/internal/platform/apperr"
)

// # Member Code Data Access

// Store defines the keyed member-code persistence contract.
type Store interface {

	/*
		Get returns the entry keyed by the canonical email.

		Parameters:
		  - ctx: context.Context
		  - email: string (canonical)

		Returns:
		  - *Entry: Hydrated entry
		  - error: apperr.NotFound or storage failures
	*/
	Get(ctx context.Context, email string) (*Entry, error)

	/*
		Put creates or replaces the entry for its email.

		Parameters:
		  - ctx: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Put(ctx context.Context, entry *Entry) error

	/*
		Update atomically applies mutate to the entry keyed by the canonical
		email. No concurrent mutation of the same key may interleave between
		the read and the write. mutate may return nil to leave the entry
		unchanged.

		Parameters:
		  - ctx: context.Context
		  - email: string (canonical)
		  - mutate: func(*Entry) (*Entry, error)

		Returns:
		  - *Entry: The entry as persisted (or as read, when unchanged)
		  - error: apperr.NotFound, mutate's error, or persistence failures
	*/
	Update(ctx context.Context, email string, mutate func(*Entry) (*Entry, error)) (*Entry, error)

	/*
		Delete removes the entry. Unknown emails are a no-op.

		Parameters:
		  - ctx: context.Context
		  - email: string (canonical)

		Returns:
		  - error: Persistence failures
	*/
	Delete(ctx context.Context, email string) error

	/*
		ListPending returns every entry with pendingNotify set.

		Parameters:
		  - ctx: context.Context

		Returns:
		  - []*Entry: Entries awaiting dispatch
		  - error: Storage failures
	*/
	ListPending(ctx context.Context) ([]*Entry, error)
}

// isNotFound reports whether err is the registry's missing-entry error.
func isNotFound(err error) bool {
	var ae *apperr.AppError
	return errors.As(err, &ae) && ae.HTTPStatus == http.StatusNotFound
}
