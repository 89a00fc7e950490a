// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package identity

import (
	"context"
	"sync"
	"time"

	"github.com/velourclub/velour/internal/platform/apperr"
)

// MemoryStore implements [Store] with an in-process map, keyed by canonical email.
//
// # Scope
//
// Test double and development convenience; production deployments use the
// Postgres directory.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*Identity
	byID    map[string]*Identity
}

// NewMemoryStore creates an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*Identity),
		byID:    make(map[string]*Identity),
	}
}

// FindByEmail returns the identity keyed by the canonical email.
func (store *MemoryStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	found, ok := store.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("Identity")
	}

	copied := *found
	return &copied, nil
}

// FindByID returns the identity with the given ID.
func (store *MemoryStore) FindByID(_ context.Context, id string) (*Identity, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	found, ok := store.byID[id]
	if !ok {
		return nil, apperr.NotFound("Identity")
	}

	copied := *found
	return &copied, nil
}

// Create persists a new identity.
func (store *MemoryStore) Create(_ context.Context, identity *Identity) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.byEmail[identity.Email]; exists {
		return apperr.Conflict("Email is already provisioned")
	}

	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}

	copied := *identity
	store.byEmail[identity.Email] = &copied
	store.byID[identity.ID] = &copied
	return nil
}
