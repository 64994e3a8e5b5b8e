// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/handlers"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/service"
)

func NewRouter(store *db.Store) *http.ServeMux {
	mux := http.NewServeMux()
	svc := service.New(store)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(svc)
	locationHandler := handlers.NewLocationHandler(svc)
	electionHandler := handlers.NewElectionHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)

	// authed wraps a handler with logging and Basic authentication
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithUser(svc, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := store.WithTimeout(r.Context())
		defer cancel()
		if err := store.DB.PingContext(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("store unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users and roles
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.Register))
	mux.HandleFunc("POST /users/{id}/admin", authed(userHandler.Promote))
	mux.HandleFunc("DELETE /users/{id}/admin", authed(userHandler.Demote))

	// Location hierarchy
	mux.HandleFunc("GET /locations/choices", authed(locationHandler.Choices))
	mux.HandleFunc("POST /locations", authed(locationHandler.Create))
	mux.HandleFunc("GET /locations/{id}/path", authed(locationHandler.Path))

	// Elections, conditions and rounds
	mux.HandleFunc("GET /elections", authed(electionHandler.List))
	mux.HandleFunc("POST /elections", authed(electionHandler.Create))
	mux.HandleFunc("POST /conditions", authed(electionHandler.CreateCondition))
	mux.HandleFunc("POST /elections/{id}/rounds", authed(electionHandler.AttachRound))
	mux.HandleFunc("GET /elections/{id}/rounds", authed(electionHandler.Rounds))
	mux.HandleFunc("POST /rounds/{id}/conditions", authed(electionHandler.AddCondition))

	// Candidacy and voting
	mux.HandleFunc("POST /rounds/{id}/candidates", authed(votingHandler.RegisterCandidate))
	mux.HandleFunc("POST /elections/{id}/voters", authed(votingHandler.RegisterVoter))
	mux.HandleFunc("DELETE /elections/{id}/voters/{user}", authed(votingHandler.RevokeVoter))
	mux.HandleFunc("POST /candidates/{id}/votes", authed(votingHandler.CastVote))

	// Results
	mux.HandleFunc("GET /rounds/{id}/results", authed(resultsHandler.GetResults))
	mux.HandleFunc("POST /rounds/{id}/advance", authed(resultsHandler.Advance))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-elect API v1"))
	})

	return mux
}
