// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/tally"
)

// RoundResults tallies a round and evaluates its conditions. Every
// candidate of the round appears in the tallies, including those without
// votes, in registration order.
func (s *Service) RoundResults(ctx context.Context, roundID string) (*models.RoundResult, error) {
	var result *models.RoundResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		r, err := loadRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		result, err = roundResult(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func roundResult(ctx context.Context, tx *sql.Tx, r *models.ElectionRound) (*models.RoundResult, error) {
	tallies, err := roundTallies(ctx, tx, r.ID)
	if err != nil {
		return nil, err
	}

	advancing, err := tally.Evaluate(r.AdvancementCondition, tallies)
	if err != nil {
		return nil, err
	}

	result := &models.RoundResult{
		RoundID:    r.ID,
		Terminal:   r.Terminal(),
		TotalVotes: tally.Total(tallies),
		Tallies:    tallies,
		Advancing:  advancing,
		Other:      []models.ConditionOutcome{},
	}
	for _, rc := range r.OtherConditions {
		met, err := tally.Evaluate(rc.Condition, tallies)
		if err != nil {
			return nil, err
		}
		result.Other = append(result.Other, models.ConditionOutcome{
			Condition: rc.Condition,
			Effect:    rc.Effect,
			Met:       met,
		})
	}
	return result, nil
}

func roundTallies(ctx context.Context, tx *sql.Tx, roundID string) ([]models.Tally, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, COUNT(v.id)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		WHERE c.round_id = $1
		GROUP BY c.id, c.created_at
		ORDER BY c.created_at, c.id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tallies: %w", err)
	}
	defer rows.Close()

	tallies := []models.Tally{}
	for rows.Next() {
		var t models.Tally
		if err := rows.Scan(&t.CandidateID, &t.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// AdvanceRound evaluates a round and enters its advancing candidates into
// the next round under the same user or display name. Candidates already
// present in the next round are reused, so advancing twice changes nothing.
// A terminal round only reports its winners.
func (s *Service) AdvanceRound(ctx context.Context, actor *models.User, roundID string) (*models.AdvanceRoundResponse, error) {
	resp := &models.AdvanceRoundResponse{Promoted: []models.Candidate{}}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		r, err := roundForAdmin(ctx, tx, actor, roundID)
		if err != nil {
			return err
		}
		if _, err := s.loadElection(ctx, tx, r.ElectionID, true); err != nil {
			return err
		}

		result, err := roundResult(ctx, tx, r)
		if err != nil {
			return err
		}
		resp.Result = *result
		if r.Terminal() {
			return nil
		}

		for _, id := range result.Advancing {
			from, err := loadCandidate(ctx, tx, id)
			if err != nil {
				return err
			}
			to, err := nextRoundCandidate(ctx, tx, from, *r.NextRoundID)
			if err != nil {
				return err
			}
			if to == nil {
				to, err = s.insertCandidate(ctx, tx, r.ElectionID, *r.NextRoundID, from.UserID, from.DisplayName)
				if err != nil {
					return err
				}
			}
			resp.Promoted = append(resp.Promoted, *to)
		}
		return nil
	})
	if err != nil {
		logFailure("advance round", err, "round_id", roundID)
		return nil, err
	}

	slog.Info("round advanced", "round_id", roundID, "advancing", len(resp.Result.Advancing), "terminal", resp.Result.Terminal, "by", actor.ID)
	return resp, nil
}

func nextRoundCandidate(ctx context.Context, tx *sql.Tx, from *models.Candidate, nextRoundID string) (*models.Candidate, error) {
	var row *sql.Row
	if from.UserID != nil {
		row = tx.QueryRowContext(ctx, `
			SELECT `+candidateColumns+` FROM candidate
			WHERE election_id = $1 AND round_id = $2 AND user_id = $3
		`, from.ElectionID, nextRoundID, *from.UserID)
	} else {
		row = tx.QueryRowContext(ctx, `
			SELECT `+candidateColumns+` FROM candidate
			WHERE election_id = $1 AND round_id = $2 AND display_name = $3 AND user_id IS NULL
		`, from.ElectionID, nextRoundID, *from.DisplayName)
	}
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}
	return c, nil
}

// roundForAdmin loads a round the actor administers. Unknown rounds look
// the same as forbidden ones to anyone but a global admin.
func roundForAdmin(ctx context.Context, tx *sql.Tx, actor *models.User, roundID string) (*models.ElectionRound, error) {
	r, err := loadRound(ctx, tx, roundID)
	if errors.Is(err, ErrUnknownRound) && !actor.IsGlobalAdmin {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, err
	}
	if !CanAdministerElection(actor, r.ElectionID) {
		return nil, ErrNotAuthorized
	}
	return r, nil
}
