// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package sec

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MasterKey holds the fixed operator credential in hashed form.
//
// The plaintext key arrives once from configuration at startup, is normalized
// and hashed, and is never retained. Comparison is case-insensitive after
// trimming, matching how the key is communicated to staff out of band.
type MasterKey struct {
	hash []byte
}

// NewMasterKey hashes the configured operator key.
//
// An empty key is rejected: without a master key no operator can ever log in,
// which is a fatal misconfiguration the caller must treat as startup failure.
func NewMasterKey(plainKey string) (*MasterKey, error) {
	normalized := normalizeKey(plainKey)
	if normalized == "" {
		return nil, fmt.Errorf("sec: master key must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(normalized), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to hash master key: %w", err)
	}

	return &MasterKey{hash: hash}, nil
}

// Check compares a submitted operator code against the master key.
// The comparison inside bcrypt is constant-time.
func (key *MasterKey) Check(submitted string) bool {
	err := bcrypt.CompareHashAndPassword(key.hash, []byte(normalizeKey(submitted)))
	return err == nil
}

// normalizeKey trims surrounding whitespace and upper-cases the key so that
// "ops-master-key-9" and "OPS-MASTER-KEY-9 " compare equal.
func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
