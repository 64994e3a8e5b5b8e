// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
)

// actor returns the authenticated user, writing a 401 when there is none
func actor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Credentials required")
		return nil, false
	}
	return u, true
}

// optionalQuery returns a pointer to a query parameter, or nil when absent
func optionalQuery(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	v := r.URL.Query().Get(key)
	return &v
}
