// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Authentication

WithUser checks HTTP Basic credentials and stores the user in the request
context:

	mux.HandleFunc("POST /locations", middleware.WithUser(svc, handler.Create))
	u := middleware.UserFromContext(r.Context())

# Errors

DomainError maps service errors to statuses: 400 for invalid input, 403 for
authorization, 404 for unknown references, 409 for duplicates and chain
conflicts, 422 for voting rule violations and 503 for an unavailable store.
403 responses never say why.

# Request Logging and CORS

	mux.HandleFunc("GET /elections", middleware.WithLogging(handler))
	server := http.Server{Handler: middleware.CORS(mux)}
*/
package middleware
