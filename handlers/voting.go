// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type VotingHandler struct {
	svc *service.Service
}

func NewVotingHandler(svc *service.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// RegisterCandidate handles POST /rounds/{id}/candidates
// Only admins of the round's election may register candidates.
func (h *VotingHandler) RegisterCandidate(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var req models.RegisterCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	round, err := h.svc.GetRound(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrUnknownRound) && !u.IsGlobalAdmin {
		err = service.ErrNotAuthorized
	}
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	if !service.CanAdministerElection(u, round.ElectionID) {
		middleware.DomainError(w, service.ErrNotAuthorized)
		return
	}

	c, err := h.svc.RegisterCandidate(r.Context(), round.ElectionID, round.ID, req)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// RegisterVoter handles POST /elections/{id}/voters
// Users register themselves; registering anyone else takes an election admin.
// An empty body registers the caller.
func (h *VotingHandler) RegisterVoter(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	electionID := r.PathValue("id")

	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		req.UserID = u.ID
	}
	if req.UserID != u.ID && !service.CanAdministerElection(u, electionID) {
		middleware.DomainError(w, service.ErrNotAuthorized)
		return
	}

	v, err := h.svc.RegisterVoter(r.Context(), req.UserID, electionID)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, v)
}

// RevokeVoter handles DELETE /elections/{id}/voters/{user}
func (h *VotingHandler) RevokeVoter(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	if err := h.svc.RevokeVoter(r.Context(), u, r.PathValue("user"), r.PathValue("id")); err != nil {
		middleware.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CastVote handles POST /candidates/{id}/votes
// The optional X-Idempotency-Key header makes retries safe: a replay
// returns the original vote with 200 instead of 201.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	nonce := r.Header.Get(middleware.IdempotencyKeyHeader)

	vote, created, err := h.svc.CastVote(r.Context(), u.ID, r.PathValue("id"), nonce)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		slog.Debug("duplicate vote submission", "vote_id", vote.ID, "remote", middleware.GetClientIP(r))
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, models.CastVoteResponse{Vote: *vote, Created: created})
}
