// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package guard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements [Store] with an in-process map.
//
// # Scope
//
// Suitable for tests and single-node deployments. Attempt state is lost on
// restart, which only resets counters — never grants access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count       int
	lockedUntil time.Time
	expiresAt   time.Time
}

// NewMemoryStore creates an empty in-memory attempt store. now overrides the
// clock used for entry decay; nil means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: now}
}

// Increment adds one failure to the key's counter under the store mutex.
func (store *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	entry, found := store.entries[key]

	// A decayed counter restarts from zero.
	if !found || now.After(entry.expiresAt) {
		entry = &memoryEntry{}
		store.entries[key] = entry
	}

	entry.count++
	entry.expiresAt = now.Add(ttl)
	return entry.count, nil
}

// Lock marks the key as locked until the given instant.
func (store *MemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.entries[key]
	if !found {
		entry = &memoryEntry{}
		store.entries[key] = entry
	}

	entry.lockedUntil = until
	if until.After(entry.expiresAt) {
		entry.expiresAt = until
	}
	return nil
}

// State returns the current attempt state for the key.
func (store *MemoryStore) State(_ context.Context, key string) (State, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.entries[key]
	if !found || store.now().After(entry.expiresAt) {
		return State{}, nil
	}

	return State{FailureCount: entry.count, LockedUntil: entry.lockedUntil}, nil
}

// Clear removes the counter and any lock for the key.
func (store *MemoryStore) Clear(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.entries, key)
	return nil
}

// Sweep drops decayed entries. Called periodically by the application so an
// attack that touches many keys does not grow the map without bound.
func (store *MemoryStore) Sweep() {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	for key, entry := range store.entries {
		if now.After(entry.expiresAt) {
			delete(store.entries, key)
		}
	}
}
