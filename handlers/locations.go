// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type LocationHandler struct {
	svc *service.Service
}

func NewLocationHandler(svc *service.Service) *LocationHandler {
	return &LocationHandler{svc: svc}
}

// Choices handles GET /locations/choices
// ?mutating=true turns an empty list into 403.
func (h *LocationHandler) Choices(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	mutating := r.URL.Query().Get("mutating") == "true"
	choices, err := h.svc.AuthorizedLocations(r.Context(), u, mutating)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, choices)
}

// Create handles POST /locations
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var req models.CreateLocationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	loc, err := h.svc.CreateLocation(r.Context(), u, req.Name, req.ParentID)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, loc)
}

// Path handles GET /locations/{id}/path
func (h *LocationHandler) Path(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.AncestorPath(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.AncestorPathResponse{Path: path})
}
