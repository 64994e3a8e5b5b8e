// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the relational store: opening it, creating the schema and
classifying its errors.

# Store

Open picks the driver from the configuration (modernc.org/sqlite or
lib/pq) and verifies the connection:

	store, err := db.Open(ctx, cfg)
	defer store.Close()

WithTx runs a function in a transaction bounded by the store timeout.
Infrastructure failures come back wrapped in ErrStoreUnavailable and are
safe to retry; anything else the function returns passes through.

	err := store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		...
	})

SQLite runs on a single connection, which serializes transactions.
PostgreSQL rows are locked with the ForUpdate suffix.

# Schema

CreateSchema is safe to call multiple times. The statements are valid for
both drivers.

	location *──1 location (parent)
	election *──1 location
	election 1──* election_round ──1 vote_condition
	election_round 1──0..1 election_round (next)
	election_round *──* vote_condition (round_condition, with effect)
	candidate *──1 election_round
	voter *──1 election, app_user
	vote *──1 voter, candidate

Uniqueness rules live in the schema as unique and partial unique indexes,
so concurrent inserts cannot both succeed.
*/
package db
