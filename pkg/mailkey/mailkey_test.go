// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package mailkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velourclub/velour/pkg/mailkey"
)

/*
TestNormalize verifies the canonicalization pipeline.
*/
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"already_canonical", "alice@example.test", "alice@example.test"},
		{"mixed_case", "Alice@Example.Test", "alice@example.test"},
		{"surrounding_space", "  alice@example.test  ", "alice@example.test"},
		{"fullwidth_unicode", "ａｌｉｃｅ@example.test", "alice@example.test"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mailkey.Normalize(tt.email))
		})
	}
}

/*
TestEqual verifies key equivalence across renditions of the same address.
*/
func TestEqual(t *testing.T) {
	assert.True(t, mailkey.Equal("Alice@Example.Test", "alice@example.test"))
	assert.True(t, mailkey.Equal("  alice@example.test", "alice@example.test  "))
	assert.False(t, mailkey.Equal("alice@example.test", "bob@example.test"))
}
