// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type UserHandler struct {
	svc *service.Service
}

func NewUserHandler(svc *service.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	u, err := h.svc.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, u)
}

// Promote handles POST /users/{id}/admin
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, true)
}

// Demote handles DELETE /users/{id}/admin
func (h *UserHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, false)
}

func (h *UserHandler) changeRole(w http.ResponseWriter, r *http.Request, grant bool) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	userID := r.PathValue("id")

	var req models.RoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	selected := 0
	for _, set := range []bool{req.Global, req.LocationID != "", req.ElectionID != ""} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "exactly one of global, location_id and election_id is required")
		return
	}

	var change func(ctx context.Context) error
	switch {
	case req.Global && grant:
		change = func(ctx context.Context) error { return h.svc.PromoteGlobalAdmin(ctx, u, userID) }
	case req.Global:
		change = func(ctx context.Context) error { return h.svc.DemoteGlobalAdmin(ctx, u, userID) }
	case req.LocationID != "" && grant:
		change = func(ctx context.Context) error { return h.svc.GrantLocationAdmin(ctx, u, userID, req.LocationID) }
	case req.LocationID != "":
		change = func(ctx context.Context) error { return h.svc.RevokeLocationAdmin(ctx, u, userID, req.LocationID) }
	case grant:
		change = func(ctx context.Context) error { return h.svc.GrantElectionAdmin(ctx, u, userID, req.ElectionID) }
	default:
		change = func(ctx context.Context) error { return h.svc.RevokeElectionAdmin(ctx, u, userID, req.ElectionID) }
	}

	if err := change(r.Context()); err != nil {
		middleware.DomainError(w, err)
		return
	}

	updated, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, updated)
}
