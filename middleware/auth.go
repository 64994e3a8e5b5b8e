// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

// IdempotencyKeyHeader carries the client nonce that makes a vote replayable
const IdempotencyKeyHeader = "X-Idempotency-Key"

type contextKey struct{}

// Authenticator checks a name/password pair
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (*models.User, error)
}

// WithUser authenticates the request with HTTP Basic credentials and stores
// the acting user in the request context
func WithUser(authn Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="quickly-elect"`)
			ErrorResponse(w, http.StatusUnauthorized, "Credentials required")
			return
		}

		u, err := authn.Authenticate(r.Context(), name, password)
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", `Basic realm="quickly-elect"`)
			ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err != nil {
			DomainError(w, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, u)))
	}
}

// UserFromContext returns the user stored by WithUser, or nil
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(contextKey{}).(*models.User)
	return u
}

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrNotAuthorized, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrInvalidCondition, http.StatusBadRequest},
	{service.ErrInvalidParent, http.StatusBadRequest},
	{service.ErrInvalidLocation, http.StatusBadRequest},
	{service.ErrDuplicateUser, http.StatusConflict},
	{service.ErrDuplicateLocation, http.StatusConflict},
	{service.ErrDuplicateElection, http.StatusConflict},
	{service.ErrDuplicateCandidacy, http.StatusConflict},
	{service.ErrDuplicateVoter, http.StatusConflict},
	{service.ErrCycleDetected, http.StatusConflict},
	{service.ErrRoundNotTerminal, http.StatusConflict},
	{service.ErrUnknownUser, http.StatusNotFound},
	{service.ErrUnknownLocation, http.StatusNotFound},
	{service.ErrUnknownElection, http.StatusNotFound},
	{service.ErrUnknownCondition, http.StatusNotFound},
	{service.ErrUnknownRound, http.StatusNotFound},
	{service.ErrUnknownCandidate, http.StatusNotFound},
	{service.ErrNotRegisteredVoter, http.StatusUnprocessableEntity},
	{service.ErrQuotaExceeded, http.StatusUnprocessableEntity},
	{service.ErrSelfVoteForbidden, http.StatusUnprocessableEntity},
	{service.ErrCandidateIneligible, http.StatusUnprocessableEntity},
	{service.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

// StatusFor maps a service error to its HTTP status
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// DomainError writes the response for a service error. Authorization
// failures carry no detail; infrastructure failures are not described.
func DomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusForbidden:
		ErrorResponse(w, status, "Not authorized")
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		ErrorResponse(w, status, "Store unavailable, retry")
	case http.StatusInternalServerError:
		ErrorResponse(w, status, "Internal error")
	default:
		ErrorResponse(w, status, err.Error())
	}
}
