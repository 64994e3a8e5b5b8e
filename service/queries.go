// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/quickly-elect/models"
)

const electionColumns = `
	id, title, location_id, potential_voters, date_of_vote, first_round_id,
	votes_per_voter, votes_per_voter_per_candidate, candidate_can_vote,
	candidate_can_vote_for_self, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (*models.Election, error) {
	var e models.Election
	var firstRound sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.LocationID, &e.PotentialVoters, &e.DateOfVote, &firstRound,
		&e.RuleSet.VotesPerVoter, &e.RuleSet.VotesPerVoterPerCandidate, &e.RuleSet.CandidateCanVote,
		&e.RuleSet.CandidateCanVoteForSelf, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.FirstRoundID = nullableString(firstRound)
	return &e, nil
}

// loadElection reads an election, optionally locking its row until the
// transaction ends.
func (s *Service) loadElection(ctx context.Context, tx *sql.Tx, id string, lock bool) (*models.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM election WHERE id = $1`
	if lock {
		query += s.store.ForUpdate()
	}
	e, err := scanElection(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownElection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

func loadCondition(ctx context.Context, tx *sql.Tx, id string) (*models.Condition, error) {
	var c models.Condition
	err := tx.QueryRowContext(ctx, `
		SELECT id, kind, threshold FROM vote_condition WHERE id = $1
	`, id).Scan(&c.ID, &c.Kind, &c.Threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query condition: %w", err)
	}
	return &c, nil
}

// loadRound reads a round with its advancement and auxiliary conditions
func loadRound(ctx context.Context, tx *sql.Tx, id string) (*models.ElectionRound, error) {
	var r models.ElectionRound
	var next sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT r.id, r.election_id, r.description, r.next_round_id, c.id, c.kind, c.threshold
		FROM election_round r
		JOIN vote_condition c ON c.id = r.condition_id
		WHERE r.id = $1
	`, id).Scan(
		&r.ID, &r.ElectionID, &r.Description, &next,
		&r.AdvancementCondition.ID, &r.AdvancementCondition.Kind, &r.AdvancementCondition.Threshold,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query round: %w", err)
	}
	r.NextRoundID = nullableString(next)

	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.kind, c.threshold, rc.effect
		FROM round_condition rc
		JOIN vote_condition c ON c.id = rc.condition_id
		WHERE rc.round_id = $1
		ORDER BY c.kind, c.threshold
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query round conditions: %w", err)
	}
	defer rows.Close()

	r.OtherConditions = []models.RoundCondition{}
	for rows.Next() {
		var rc models.RoundCondition
		if err := rows.Scan(&rc.Condition.ID, &rc.Condition.Kind, &rc.Condition.Threshold, &rc.Effect); err != nil {
			return nil, fmt.Errorf("failed to scan round condition: %w", err)
		}
		r.OtherConditions = append(r.OtherConditions, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read round conditions: %w", err)
	}
	return &r, nil
}

// loadChain walks an election's rounds from the first to the terminal one
func loadChain(ctx context.Context, tx *sql.Tx, e *models.Election) ([]*models.ElectionRound, error) {
	chain := []*models.ElectionRound{}
	seen := make(map[string]bool)
	next := e.FirstRoundID
	for next != nil {
		if seen[*next] {
			return nil, fmt.Errorf("%w: round %s reached twice from election %s", ErrCycleDetected, *next, e.ID)
		}
		seen[*next] = true

		r, err := loadRound(ctx, tx, *next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, r)
		next = r.NextRoundID
	}
	return chain, nil
}

const candidateColumns = `id, election_id, round_id, user_id, display_name, can_vote`

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var c models.Candidate
	var userID, displayName sql.NullString
	if err := row.Scan(&c.ID, &c.ElectionID, &c.RoundID, &userID, &displayName, &c.CanVote); err != nil {
		return nil, err
	}
	c.UserID = nullableString(userID)
	c.DisplayName = nullableString(displayName)
	return &c, nil
}

func loadCandidate(ctx context.Context, tx *sql.Tx, id string) (*models.Candidate, error) {
	c, err := scanCandidate(tx.QueryRowContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}
	return c, nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var found bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS(`+query+`)`, args...).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return found, nil
}
