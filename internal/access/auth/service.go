// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package auth

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/velourclub/velour/internal/access/identity"
	"github.com/velourclub/velour/internal/access/session"
	"github.com/velourclub/velour/internal/platform/apperr"
	"github.com/velourclub/velour/internal/platform/ctxutil"
	"github.com/velourclub/velour/internal/platform/sec"
	"github.com/velourclub/velour/pkg/mailkey"
	"github.com/velourclub/velour/pkg/pointer"
)

// TokenProvider signs carrier tokens for issued sessions.
type TokenProvider interface {
	GenerateSessionToken(sessionID, email string, role sec.Role, expiresAt time.Time) (string, error)
}

// LoginResult bundles everything the login handler returns to the client.
type LoginResult struct {
	Token   string
	Session *session.Session
	Who     *identity.Identity
}

// Service is the authentication gateway: the single entry point through which
// email+code pairs become live sessions.
type Service struct {
	identities identity.Store
	validator  *Validator
	sessions   *session.Manager
	tokens     TokenProvider
}

// NewService constructs the auth gateway [Service].
func NewService(identities identity.Store, validator *Validator, sessions *session.Manager, tokens TokenProvider) *Service {
	return &Service{
		identities: identities,
		validator:  validator,
		sessions:   sessions,
		tokens:     tokens,
	}
}

/*
Login authenticates an email+code pair and, on success, issues a session with
a signed carrier token.

Description: Unknown emails, wrong codes and unprovisioned members all come
back as the same INVALID_CREDENTIALS error, so the endpoint cannot be used to
probe which addresses belong to the club. Lockout is the one deliberate
exception: a locked flow returns LOCKED with a retry hint, since the caller
on that path has already proven they know a valid email.

Parameters:
  - ctx: context.Context
  - email: string (any case or spacing, canonicalized internally)
  - code: string (submitted access code or master key)

Returns:
  - *LoginResult: Token, session record and identity on success
  - error: *apperr.AppError for all rejection shapes
*/
func (service *Service) Login(ctx context.Context, email, code string) (*LoginResult, error) {
	logger := ctxutil.GetLogger(ctx)
	key := mailkey.Normalize(email)

	who, err := service.identities.FindByEmail(ctx, key)
	if err != nil {
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
			// Unknown identity: nothing is compared and no guard state is
			// touched, but the response is indistinguishable from a wrong code.
			logger.Debug("login_unknown_identity")
			return nil, apperr.InvalidCredentials(nil)
		}
		return nil, apperr.Internal(err)
	}

	result, err := service.validator.Validate(ctx, who, code)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if !result.Accepted {
		switch result.Reason {
		case ReasonLocked:
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.Warn("login_rejected_locked", "identity_id", who.ID, "retry_after_seconds", retryAfter)
			return nil, apperr.Locked(retryAfter)

		case ReasonNotProvisioned:
			logger.Warn("login_rejected_not_provisioned", "identity_id", who.ID)
			return nil, apperr.InvalidCredentials(nil)

		default:
			logger.Info("login_rejected_invalid_code",
				"identity_id", who.ID,
				"attempts_remaining", result.AttemptsRemaining)
			return nil, apperr.InvalidCredentials(pointer.To(result.AttemptsRemaining))
		}
	}

	issued, err := service.sessions.Issue(ctx, who)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	token, err := service.tokens.GenerateSessionToken(issued.ID, who.Email, who.Role, issued.ExpiresAt)
	if err != nil {
		// The session record exists but cannot be carried; revoke it rather
		// than leave an orphan the owner never received.
		_ = service.sessions.Revoke(ctx, issued.ID)
		return nil, apperr.Internal(err)
	}

	logger.Info("login_accepted", "identity_id", who.ID, "session_id", issued.ID, "role", who.Role)
	return &LoginResult{Token: token, Session: issued, Who: who}, nil
}

/*
Logout revokes the session. Revoking an already-dead session succeeds, so a
double-tapped logout button never surfaces an error.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - error: Storage failures only
*/
func (service *Service) Logout(ctx context.Context, sessionID string) error {
	if err := service.sessions.Revoke(ctx, sessionID); err != nil {
		return apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).Info("logout", "session_id", sessionID)
	return nil
}

/*
Extend slides the session expiry forward when it is inside the renewal window.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *session.Session: The session with its (possibly unchanged) expiry
  - error: *apperr.AppError (SESSION_EXPIRED when the session is dead)
*/
func (service *Service) Extend(ctx context.Context, sessionID string) (*session.Session, error) {
	extended, err := service.sessions.Extend(ctx, sessionID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return extended, nil
}

/*
Inspect returns the live session record, or SESSION_EXPIRED if it is gone.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *session.Session: The live session
  - error: *apperr.AppError
*/
func (service *Service) Inspect(ctx context.Context, sessionID string) (*session.Session, error) {
	found, err := service.sessions.Validate(ctx, sessionID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return found, nil
}
