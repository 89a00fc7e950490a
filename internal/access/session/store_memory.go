// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package session

import (
	"context"
	"sync"
	"time"

	"github.com/velourclub/velour/internal/platform/apperr"
)

// MemoryStore implements [Store] with an in-process map.
//
// # Scope
//
// Suitable for tests and single-node deployments. Sessions are lost on
// restart, which fails closed: every member simply signs in again.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create persists a freshly issued session.
func (store *MemoryStore) Create(_ context.Context, session *Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := *session
	store.sessions[session.ID] = &copied
	return nil
}

// Find returns the session with the given ID.
func (store *MemoryStore) Find(_ context.Context, sessionID string) (*Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, found := store.sessions[sessionID]
	if !found {
		return nil, apperr.SessionExpired()
	}

	copied := *session
	return &copied, nil
}

// SetExpiry updates the session's absolute expiry in place.
func (store *MemoryStore) SetExpiry(_ context.Context, sessionID string, expiresAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, found := store.sessions[sessionID]
	if !found {
		return apperr.SessionExpired()
	}

	session.ExpiresAt = expiresAt
	return nil
}

// Delete removes the session. Unknown IDs are a no-op.
func (store *MemoryStore) Delete(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.sessions, sessionID)
	return nil
}

// DeleteExpired removes every session whose expiry is in the past.
func (store *MemoryStore) DeleteExpired(_ context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	for id, session := range store.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(store.sessions, id)
		}
	}
	return nil
}
