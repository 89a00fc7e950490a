// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package membercode provides the operator HTTP surface for member code management.

# Architecture

The handler is a thin mediation layer between the operator console and the
[Registry]:
  - Protocol: Standard RESTful JSON interface.
  - Security: Every route requires an operator session (enforced at mount).
  - Verification: Enforces strict input validation before touching the registry.

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package membercode

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/velourclub/velour/internal/platform/request"
	"github.com/velourclub/velour/internal/platform/respond"
	"github.com/velourclub/velour/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the operator-facing member code endpoints.
type Handler struct {
	registry *Registry
	notifier Notifier
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(registry *Registry, notifier Notifier) *Handler {
	return &Handler{registry: registry, notifier: notifier}
}

// Routes returns a [chi.Router] configured with member-code routes.
//
// # Endpoints
//   - POST /{email}/code          : Provision (idempotent) and return the code.
//   - GET  /{email}/code          : Inspect the entry plus window previews.
//   - POST /{email}/code/dispatch : Hand the code to the notifier, clear the flag.
//   - GET  /pending-codes         : List entries awaiting dispatch.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/pending-codes", handler.listPending)
	router.Post("/{email}/code", handler.provision)
	router.Get("/{email}/code", handler.inspect)
	router.Post("/{email}/code/dispatch", handler.dispatch)

	return router
}

// emailParam extracts and validates the {email} URL parameter.
func emailParam(request *http.Request) (string, error) {
	raw := requestutil.Param(request, "email")

	// Path segments arrive URL-encoded ("%40" for "@").
	email, err := url.PathUnescape(raw)
	if err != nil {
		email = raw
	}

	v := &validate.Validator{}
	v.Required("email", email).Email("email", email)
	if err := v.Err(); err != nil {
		return "", err
	}

	return email, nil
}

/*
Provision lazily creates the member's code entry.

POST /api/v1/members/{email}/code

Description: Idempotent — repeated calls return the existing, unconsumed code.

Response:
  - 201: Entry: The registry entry with its current code
  - 400: ErrInvalidJSON: Malformed email parameter
*/
func (handler *Handler) provision(writer http.ResponseWriter, request *http.Request) {
	email, err := emailParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.registry.Provision(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, entry)
}

/*
Inspect returns the member's entry together with window previews.

GET /api/v1/members/{email}/code

Response:
  - 200: {entry, preview}: Registry entry and previous/current/next window codes
  - 404: NotFound: Member has not been provisioned
*/
func (handler *Handler) inspect(writer http.ResponseWriter, request *http.Request) {
	email, err := emailParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.registry.Get(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"entry":   entry,
		"preview": handler.registry.PreviewWindows(email),
	})
}

/*
Dispatch hands the current code to the notification channel and clears the
pending-notify flag.

POST /api/v1/members/{email}/code/dispatch

Response:
  - 200: Success: Code dispatched and flag cleared
  - 404: NotFound: Member has not been provisioned
*/
func (handler *Handler) dispatch(writer http.ResponseWriter, request *http.Request) {
	email, err := emailParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.registry.Get(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Hand off first; the flag is only cleared once the channel accepted it.
	if err := handler.notifier.NotifyCode(request.Context(), entry.Email, entry.CurrentCode); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.registry.ClearNotify(request.Context(), email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message": "Code dispatched",
	})
}

/*
ListPending returns every entry awaiting notification dispatch.

GET /api/v1/members/pending-codes

Response:
  - 200: []Entry: Entries with pendingNotify set, ordered by email
*/
func (handler *Handler) listPending(writer http.ResponseWriter, request *http.Request) {
	pending, err := handler.registry.ListPending(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pending)
}
