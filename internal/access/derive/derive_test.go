// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package derive_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourclub/velour/internal/access/derive"
)

var codeShape = regexp.MustCompile(`^[2-9A-HJ-NP-Z]{4}-[2-9A-HJ-NP-Z]{4}$`)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

/*
TestDeriver_Deterministic verifies that the same inputs always yield the same code.
*/
func TestDeriver_Deterministic(t *testing.T) {
	deriver := derive.New(derive.Config{
		Secret: "test-secret",
		Window: 168 * time.Hour,
		Now:    fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
	})

	first := deriver.Derive("alice@example.test", 0)
	second := deriver.Derive("alice@example.test", 0)

	assert.Equal(t, first, second)
	assert.Regexp(t, codeShape, first)
}

/*
TestDeriver_EmailCaseInsensitive verifies that email case and spacing do not
change the derived code.
*/
func TestDeriver_EmailCaseInsensitive(t *testing.T) {
	deriver := derive.New(derive.Config{
		Secret: "test-secret",
		Window: 168 * time.Hour,
		Now:    fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
	})

	tests := []struct {
		name  string
		email string
	}{
		{"lowercase", "alice@example.test"},
		{"uppercase", "ALICE@EXAMPLE.TEST"},
		{"mixed_case", "Alice@Example.Test"},
		{"surrounding_space", "  alice@example.test  "},
	}

	want := deriver.Derive("alice@example.test", 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, deriver.Derive(tt.email, 0))
		})
	}
}

/*
TestDeriver_DistinctInputs verifies that different emails, secrets, and
windows yield different codes.
*/
func TestDeriver_DistinctInputs(t *testing.T) {
	clock := fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	deriver := derive.New(derive.Config{Secret: "test-secret", Window: 168 * time.Hour, Now: clock})
	other := derive.New(derive.Config{Secret: "other-secret", Window: 168 * time.Hour, Now: clock})

	base := deriver.Derive("alice@example.test", 0)

	assert.NotEqual(t, base, deriver.Derive("bob@example.test", 0), "different email")
	assert.NotEqual(t, base, other.Derive("alice@example.test", 0), "different secret")
	assert.NotEqual(t, base, deriver.Derive("alice@example.test", 1), "next window")
	assert.NotEqual(t, base, deriver.Derive("alice@example.test", -1), "previous window")
}

/*
TestDeriver_WindowBoundary verifies that the code flips exactly at the window
edge and that an offset bridges adjacent windows.
*/
func TestDeriver_WindowBoundary(t *testing.T) {
	window := 168 * time.Hour

	// Anchor both clocks inside known adjacent windows.
	edge := time.Unix((time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Unix()/int64(window.Seconds())+1)*int64(window.Seconds()), 0)

	before := derive.New(derive.Config{Secret: "s", Window: window, Now: fixedClock(edge.Add(-time.Second))})
	after := derive.New(derive.Config{Secret: "s", Window: window, Now: fixedClock(edge)})

	assert.NotEqual(t,
		before.Derive("alice@example.test", 0),
		after.Derive("alice@example.test", 0))

	// The next window seen from before the edge is the current window after it.
	assert.Equal(t,
		before.Derive("alice@example.test", 1),
		after.Derive("alice@example.test", 0))
}

/*
TestGenerateCode verifies shape and basic uniqueness of random codes.
*/
func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 32; i++ {
		code, err := derive.GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, codeShape, code)
		seen[code] = true
	}

	// 32 draws over a 40-bit space colliding would indicate a broken source.
	assert.Greater(t, len(seen), 30)
}

/*
TestNormalize verifies comparison canonicalization.
*/
func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already_canonical", "ABCD-WXYZ", "ABCD-WXYZ"},
		{"lowercase", "abcd-wxyz", "ABCD-WXYZ"},
		{"surrounding_space", "  abcd-wxyz  ", "ABCD-WXYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, derive.Normalize(tt.in))
		})
	}
}
