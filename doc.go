// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Elect API server.

Quickly Elect organizes elections: a tree of locations, elections held at a
location under a rule set, multi-round structures where each round's
condition decides who advances, and a vote ledger that enforces per-voter
quotas.

# Starting the Server

SQLite is the default store:

	DATABASE_URL=elections.db go run .

PostgreSQL:

	go run . -t postgres -d "postgres://..."

A .env file in the working directory is loaded first if present.

# Configuration

  - DATABASE_URL (-d): connection string or SQLite file (required)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - PORT (-p): server port (default: 3318)
  - STORE_TIMEOUT (-store-timeout): per-operation store timeout (default: 5s)
  - LOG_LEVEL (-log-level): debug, info, warn or error
  - BOOTSTRAP_ADMIN (-bootstrap-admin): user promoted to global admin at startup

# Architecture

  - service: domain operations, each one store transaction
  - tally: condition evaluation over vote counts
  - handlers, router, middleware: JSON over HTTP with Basic authentication
  - models: domain, request and response types
  - auth: password hashing and ID generation
  - db: store handle, schema, error classification
  - cliparse: configuration parsing
*/
package main
