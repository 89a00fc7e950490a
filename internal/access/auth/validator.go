// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package auth implements the credential validation and login orchestration layer.

It unifies the two credential models of the club under one validation path:
operators authenticate against the fixed master key, members against their
current single-use code in the member code registry. Both paths share the
same brute-force guard and the same anti-enumeration response shape.

Architecture:

  - Validator: Pure orchestrator over guard + registry + master key.
  - Service: The gateway — resolves identities, maps validation outcomes to
    typed errors, and issues sessions with signed tokens.

Neither type owns mutable state; all mutation happens inside the injected
stores.
*/
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/velourclub/velour/internal/access/guard"
	"github.com/velourclub/velour/internal/access/identity"
	"github.com/velourclub/velour/internal/access/membercode"
	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/sec"
)

// # Validation Outcomes

// Reason classifies why a validation was rejected.
type Reason string

const (
	// ReasonLocked: the login flow is in brute-force lockout.
	ReasonLocked Reason = "locked"

	// ReasonInvalidCode: the submitted code does not match the expected value.
	ReasonInvalidCode Reason = "invalid_code"

	// ReasonNotProvisioned: the member has no registry entry yet.
	ReasonNotProvisioned Reason = "not_provisioned"
)

// Result is the typed outcome of one credential validation.
type Result struct {
	// Accepted is true iff the submitted code matched.
	Accepted bool

	// Reason classifies a rejection. Empty when accepted.
	Reason Reason

	// RetryAfter is how long a locked caller must wait. Zero unless locked.
	RetryAfter time.Duration

	// AttemptsRemaining is how many failures remain before lockout.
	// Meaningful only for ReasonInvalidCode.
	AttemptsRemaining int
}

// Validator compares submitted codes against the expected credential for an
// identity, consulting the guard first and mutating it on every outcome.
type Validator struct {
	guard     *guard.Guard
	registry  *membercode.Registry
	masterKey *sec.MasterKey
	now       func() time.Time
}

// Config carries the validator options.
type Config struct {
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// NewValidator constructs a [Validator].
func NewValidator(attemptGuard *guard.Guard, registry *membercode.Registry, masterKey *sec.MasterKey, cfg Config) *Validator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Validator{
		guard:     attemptGuard,
		registry:  registry,
		masterKey: masterKey,
		now:       now,
	}
}

/*
Validate checks the submitted code for an already-resolved identity.

Description: The lock check happens BEFORE any comparison, so a locked flow
gets the same response shape and timing whether the code was right or wrong —
lockout must not become an oracle for code validity.

Parameters:
  - ctx: context.Context
  - who: *identity.Identity (resolved by the caller)
  - submittedCode: string

Returns:
  - Result: Typed validation outcome
  - error: Storage failures only — rejections are data, not errors
*/
func (validator *Validator) Validate(ctx context.Context, who *identity.Identity, submittedCode string) (Result, error) {
	key := who.Email

	// ── 1. Lockout Check (always first) ───────────────────────────────────
	locked, until, err := validator.guard.IsLocked(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if locked {
		return Result{Reason: ReasonLocked, RetryAfter: until.Sub(validator.now())}, nil
	}

	// ── 2. Expected-Value Resolution ──────────────────────────────────────
	var matched bool
	switch who.Role {
	case sec.RoleOperator:
		// Fixed master key, never rotates.
		matched = validator.masterKey.Check(submittedCode)

	case sec.RoleMember:
		// Compare-and-rotate in one atomic registry operation: two concurrent
		// logins presenting the same single-use code can never both match.
		_, accepted, err := validator.registry.Consume(ctx, key, submittedCode)
		if err != nil {
			if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
				// No entry yet: the member cannot log in until an operator
				// provisions a code. No failure is recorded — nothing was
				// compared, so nothing was guessed.
				return Result{Reason: ReasonNotProvisioned}, nil
			}
			return Result{}, err
		}
		matched = accepted

	default:
		matched = false
	}

	// ── 3. Outcome Bookkeeping ────────────────────────────────────────────
	if !matched {
		state, err := validator.guard.RecordFailure(ctx, key)
		if err != nil {
			return Result{}, err
		}

		remaining := validator.guard.Threshold() - state.FailureCount
		if remaining < 0 {
			remaining = 0
		}
		return Result{Reason: ReasonInvalidCode, AttemptsRemaining: remaining}, nil
	}

	if err := validator.guard.RecordSuccess(ctx, key); err != nil {
		return Result{}, err
	}

	return Result{Accepted: true}, nil
}
