// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package membercode

import (
	"context"
	"sort"
	"sync"

	"github.com/velourclub/velour/internal/platform/apperr"
)

// MemoryStore implements [Store] with an in-process map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory member-code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the entry keyed by the canonical email.
func (store *MemoryStore) Get(_ context.Context, email string) (*Entry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	entry, found := store.entries[email]
	if !found {
		return nil, apperr.NotFound("Member code")
	}

	copied := *entry
	return &copied, nil
}

// Put creates or replaces the entry for its email.
func (store *MemoryStore) Put(_ context.Context, entry *Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := *entry
	store.entries[entry.Email] = &copied
	return nil
}

// Update atomically applies mutate to the entry keyed by the canonical email.
// The store mutex is held across the read, the mutation, and the write, so no
// concurrent Update on the same key can interleave.
func (store *MemoryStore) Update(_ context.Context, email string, mutate func(*Entry) (*Entry, error)) (*Entry, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.entries[email]
	if !found {
		return nil, apperr.NotFound("Member code")
	}

	copied := *entry
	next, err := mutate(&copied)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return &copied, nil
	}

	persisted := *next
	store.entries[email] = &persisted
	result := persisted
	return &result, nil
}

// Delete removes the entry. Unknown emails are a no-op.
func (store *MemoryStore) Delete(_ context.Context, email string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.entries, email)
	return nil
}

// ListPending returns every entry with pendingNotify set, ordered by email
// for stable operator listings.
func (store *MemoryStore) ListPending(_ context.Context) ([]*Entry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	pending := make([]*Entry, 0)
	for _, entry := range store.entries {
		if entry.PendingNotify {
			copied := *entry
			pending = append(pending, &copied)
		}
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Email < pending[j].Email })
	return pending, nil
}
