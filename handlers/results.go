// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/service"
)

type ResultsHandler struct {
	svc *service.Service
}

func NewResultsHandler(svc *service.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetResults handles GET /rounds/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RoundResults(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// Advance handles POST /rounds/{id}/advance
func (h *ResultsHandler) Advance(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.AdvanceRound(r.Context(), u, r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
