// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velourclub/velour/internal/access/session"
	"github.com/velourclub/velour/internal/platform/respond"
	"github.com/velourclub/velour/internal/platform/sec"
	"github.com/velourclub/velour/internal/platform/validate"

	requestutil "github.com/velourclub/velour/internal/platform/request"
)

// # Request / Response Contracts

type loginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginResponse struct {
	Token       string           `json:"token"`
	Session     *session.Session `json:"session"`
	Email       string           `json:"email"`
	Role        sec.Role         `json:"role"`
	DisplayName string           `json:"display_name,omitempty"`
}

// Handler exposes the login and session lifecycle endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs the auth HTTP [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the public authentication router (no session required).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/login", handler.login)
	return router
}

// SessionRoutes returns the session lifecycle router. The caller mounts it
// behind the authentication middleware.
func (handler *Handler) SessionRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.inspect)
	router.Post("/extend", handler.extend)
	return router
}

// LogoutEndpoint returns the POST /auth/logout handler. It lives outside
// [Handler.Routes] because logout requires a live session while login must not.
func (handler *Handler) LogoutEndpoint() http.HandlerFunc {
	return handler.logout
}

// # Endpoint Implementations

// login handles POST /auth/login.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var body loginRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The code field is checked for presence only. Member codes have a fixed
	// shape but the operator master key does not, and rejecting on shape
	// before comparison would leak which scheme an email belongs to.
	validator := &validate.Validator{}
	validator.
		Required("email", body.Email).
		Email("email", body.Email).
		Required("code", body.Code)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	result, err := handler.service.Login(request.Context(), body.Email, body.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loginResponse{
		Token:       result.Token,
		Session:     result.Session,
		Email:       result.Who.Email,
		Role:        result.Who.Role,
		DisplayName: result.Who.DisplayName,
	})
}

// inspect handles GET /session.
func (handler *Handler) inspect(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.Inspect(request.Context(), claims.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

// extend handles POST /session/extend.
func (handler *Handler) extend(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	extended, err := handler.service.Extend(request.Context(), claims.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, extended)
}

// logout handles POST /auth/logout.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), claims.SessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
