// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_global_admin BOOLEAN NOT NULL DEFAULT FALSE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    confirmation_code TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Locations
CREATE TABLE IF NOT EXISTS location (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 255),
    parent_id TEXT REFERENCES location(id),
    created_at TIMESTAMP NOT NULL
);

-- NULL parents never collide in a plain unique index, so roots get their own
CREATE UNIQUE INDEX IF NOT EXISTS uq_location_root_name ON location(name) WHERE parent_id IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_location_child_name ON location(parent_id, name) WHERE parent_id IS NOT NULL;

-- Conditions (shared by rounds)
CREATE TABLE IF NOT EXISTS vote_condition (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK (kind IN ('top-n-votes', 'bottom-n-votes', 'percent-over', 'percent-under', 'count-over', 'count-under')),
    threshold INTEGER NOT NULL CHECK (threshold >= 0),
    UNIQUE (kind, threshold)
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    location_id TEXT NOT NULL REFERENCES location(id),
    potential_voters INTEGER NOT NULL CHECK (potential_voters > 0),
    date_of_vote TEXT NOT NULL,
    first_round_id TEXT,
    votes_per_voter INTEGER NOT NULL CHECK (votes_per_voter >= 1),
    votes_per_voter_per_candidate INTEGER NOT NULL CHECK (votes_per_voter_per_candidate >= 1),
    candidate_can_vote BOOLEAN NOT NULL,
    candidate_can_vote_for_self BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (title, location_id, date_of_vote)
);

CREATE INDEX IF NOT EXISTS idx_election_location_id ON election(location_id);

-- Rounds
CREATE TABLE IF NOT EXISTS election_round (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    condition_id TEXT NOT NULL REFERENCES vote_condition(id),
    description TEXT NOT NULL DEFAULT '',
    next_round_id TEXT REFERENCES election_round(id),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_election_round_election_id ON election_round(election_id);
-- A round has at most one predecessor: the chain cannot branch
CREATE UNIQUE INDEX IF NOT EXISTS uq_election_round_next ON election_round(next_round_id) WHERE next_round_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS round_condition (
    round_id TEXT NOT NULL REFERENCES election_round(id) ON DELETE CASCADE,
    condition_id TEXT NOT NULL REFERENCES vote_condition(id),
    effect TEXT NOT NULL,
    PRIMARY KEY (round_id, condition_id)
);

-- Admin relations
CREATE TABLE IF NOT EXISTS location_admin (
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    location_id TEXT NOT NULL REFERENCES location(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, location_id)
);

CREATE TABLE IF NOT EXISTS election_admin (
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, election_id)
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    round_id TEXT NOT NULL REFERENCES election_round(id) ON DELETE CASCADE,
    user_id TEXT REFERENCES app_user(id),
    display_name TEXT,
    can_vote BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL,
    CHECK (user_id IS NOT NULL OR display_name IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_candidate_round_id ON candidate(round_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_candidate_user ON candidate(election_id, round_id, user_id) WHERE user_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_candidate_name ON candidate(election_id, round_id, display_name) WHERE user_id IS NULL;

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES app_user(id),
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    revoked BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (user_id, election_id)
);

-- Votes (append-only)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES voter(id),
    candidate_id TEXT NOT NULL REFERENCES candidate(id),
    round_id TEXT NOT NULL REFERENCES election_round(id),
    nonce TEXT,
    cast_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_voter_round ON vote(voter_id, round_id);
CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_vote_nonce ON vote(voter_id, candidate_id, nonce) WHERE nonce IS NOT NULL;
`
