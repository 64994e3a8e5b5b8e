// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type ElectionHandler struct {
	svc *service.Service
}

func NewElectionHandler(svc *service.Service) *ElectionHandler {
	return &ElectionHandler{svc: svc}
}

// List handles GET /elections
// ?within={location_id} restricts the list to a subtree.
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListElections(r.Context(), optionalQuery(r, "within"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summaries)
}

// Create handles POST /elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.svc.CreateElection(r.Context(), u, req)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// CreateCondition handles POST /conditions
func (h *ElectionHandler) CreateCondition(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConditionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cond, err := h.svc.CreateCondition(r.Context(), req.Kind, req.Threshold)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cond)
}

// AttachRound handles POST /elections/{id}/rounds
func (h *ElectionHandler) AttachRound(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var req models.AttachRoundRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	round, err := h.svc.AttachRound(r.Context(), u, r.PathValue("id"), req)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, round)
}

// Rounds handles GET /elections/{id}/rounds
func (h *ElectionHandler) Rounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.svc.RoundChain(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, rounds)
}

// AddCondition handles POST /rounds/{id}/conditions
func (h *ElectionHandler) AddCondition(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var req models.AddConditionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	round, err := h.svc.AddOtherCondition(r.Context(), u, r.PathValue("id"), req)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, round)
}
