// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package derive implements deterministic, time-rotating access code derivation.

A member's window code is a pure function of (email, epoch, secret): the same
inputs always produce the same 8-character code, so operators can preview the
current, next, and previous windows without storing anything.

Architecture:

  - Deriver: Stateless derivation bound to a secret and a window duration.
  - GenerateCode: Independent random draw over the same alphabet, used when
    a consumed code must be replaced with an unpredictable one.

The derived code is NOT a cryptographic commitment; it is a human-typable
proof of membership whose strength rests on the secrecy of the derivation
secret and the brute-force lockout in front of it.
*/
package derive

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/velourclub/velour/pkg/mailkey"
)

// Alphabet is the 32-symbol safe set used for every access code.
// Visually ambiguous characters (0/O, 1/I) are excluded so codes survive
// being read aloud or copied by hand.
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	// groupLen is the number of characters per hyphen-joined group.
	groupLen = 4

	// Two distinct salts make the halves of the code independent hashes.
	saltLeft  = "velour/derive/left"
	saltRight = "velour/derive/right"
)

// Deriver derives window-bound access codes from a shared secret.
//
// # Purity
//
// Derive has no side effects and never fails. The only ambient input is the
// clock, which is injectable for tests.
type Deriver struct {
	secret string
	window time.Duration
	now    func() time.Time
}

// Config carries the derivation policy.
type Config struct {
	// Secret seeds the hash. Rotating it changes every window code at once.
	Secret string

	// Window is the width of each epoch (e.g. 168h for weekly codes).
	Window time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// New constructs a [Deriver] from the given policy.
func New(cfg Config) *Deriver {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Deriver{
		secret: cfg.Secret,
		window: cfg.Window,
		now:    now,
	}
}

/*
Derive computes the access code for an email at a window offset.

Description: Offset 0 is the current window; -1 and +1 preview the previous
and next windows for operator tooling.

Parameters:
  - email: string (normalized internally, never rejected here)
  - epochOffset: int

Returns:
  - string: The XXXX-XXXX formatted code
*/
func (deriver *Deriver) Derive(email string, epochOffset int) string {

	// Bucket wall-clock time into fixed-width windows
	epoch := deriver.now().Unix()/int64(deriver.window.Seconds()) + int64(epochOffset)

	// Canonical input: normalized email, epoch, secret
	input := fmt.Sprintf("%s|%d|%s", mailkey.Normalize(email), epoch, deriver.secret)

	// Two passes with distinct salts yield two independent 32-bit values.
	// The unsigned low half of xxhash64 keeps bit extraction well-defined.
	left := uint32(xxhash.Sum64String(saltLeft + "|" + input))
	right := uint32(xxhash.Sum64String(saltRight + "|" + input))

	return encodeGroup(left) + "-" + encodeGroup(right)
}

// encodeGroup maps the low-order 5-bit chunks of value through the safe alphabet.
func encodeGroup(value uint32) string {
	var builder strings.Builder
	builder.Grow(groupLen)

	for i := 0; i < groupLen; i++ {
		index := (value >> (5 * i)) & 31
		builder.WriteByte(Alphabet[index])
	}

	return builder.String()
}

// # Rotation Codes

/*
GenerateCode draws a fresh random code over the safe alphabet.

Description: Used by the member code registry when a consumed code must be
replaced. Unlike [Deriver.Derive] the result is random: a replacement code
must not be recoverable from its predecessor.

Returns:
  - string: The XXXX-XXXX formatted code
  - error: Entropy source failures
*/
func GenerateCode() (string, error) {
	raw := make([]byte, groupLen*2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("derive: failed to read entropy: %w", err)
	}

	var builder strings.Builder
	builder.Grow(groupLen*2 + 1)

	for i, b := range raw {
		if i == groupLen {
			builder.WriteByte('-')
		}
		builder.WriteByte(Alphabet[int(b)%len(Alphabet)])
	}

	return builder.String(), nil
}

// Normalize canonicalizes a submitted code for comparison: surrounding
// whitespace is trimmed and the result is upper-cased, so "abcd-1234"
// matches "ABCD-1234".
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
