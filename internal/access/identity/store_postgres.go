// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/database/schema"
)

// # Postgres Directory

// PostgresStore implements the [Store] interface using pgx.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the directory.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
FindByEmail retrieves an identity by its canonical email address.

Parameters:
  - ctx: context.Context
  - email: string (canonical, see pkg/mailkey)

Returns:
  - *Identity: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.AccessIdentity.ID, schema.AccessIdentity.Email, schema.AccessIdentity.DisplayName,
		schema.AccessIdentity.Role, schema.AccessIdentity.CreatedAt,
		schema.AccessIdentity.Table, schema.AccessIdentity.Email)

	found := &Identity{}
	err := store.pool.QueryRow(ctx, query, email).Scan(
		&found.ID,
		&found.Email,
		&found.DisplayName,
		&found.Role,
		&found.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Identity")
		}
		return nil, fmt.Errorf("postgres_identity_find_by_email_failed: %w", err)
	}

	return found, nil
}

/*
FindByID retrieves an identity by its primary key.

Parameters:
  - ctx: context.Context
  - id: string

Returns:
  - *Identity: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByID(ctx context.Context, id string) (*Identity, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.AccessIdentity.ID, schema.AccessIdentity.Email, schema.AccessIdentity.DisplayName,
		schema.AccessIdentity.Role, schema.AccessIdentity.CreatedAt,
		schema.AccessIdentity.Table, schema.AccessIdentity.ID)

	found := &Identity{}
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&found.ID,
		&found.Email,
		&found.DisplayName,
		&found.Role,
		&found.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Identity")
		}
		return nil, fmt.Errorf("postgres_identity_find_by_id_failed: %w", err)
	}

	return found, nil
}

/*
Create persists a new identity record into the access.identity table.

Parameters:
  - ctx: context.Context
  - identity: *Identity (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (store *PostgresStore) Create(ctx context.Context, identity *Identity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.AccessIdentity.Table,
		schema.AccessIdentity.ID, schema.AccessIdentity.Email, schema.AccessIdentity.DisplayName,
		schema.AccessIdentity.Role, schema.AccessIdentity.CreatedAt)

	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.DisplayName,
		identity.Role,
		identity.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Conflict("Email is already provisioned")
		}
		return fmt.Errorf("postgres_identity_create_failed: %w", err)
	}

	return nil
}
