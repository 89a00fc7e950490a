// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

// Package mailkey canonicalizes email addresses into stable lookup keys.
//
// # Usage
//
// Every keyed store in the access subsystem (attempt counters, member codes,
// identity directory) is indexed by email. This package guarantees that
// "Alice@Example.test ", "alice@example.test", and a fullwidth-Unicode
// rendition of the same address all resolve to one key.
package mailkey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folder performs Unicode case folding, which is stricter than ToLower for
// characters like the Kelvin sign or dotless i.
var folder = cases.Fold()

// Normalize converts an email address into its canonical lookup key.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (compatibility composition: fullwidth → ASCII).
// 3. Case-folds the result.
//
// Malformed addresses are normalized, not rejected; well-formedness is the
// caller's concern (see the validate package).
func Normalize(email string) string {
	trimmed := strings.TrimSpace(email)
	composed := norm.NFKC.String(trimmed)
	return folder.String(composed)
}

// Equal reports whether two email addresses resolve to the same canonical key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
