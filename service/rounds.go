// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/tally"
)

// CreateCondition returns the condition for (kind, threshold), creating it
// on first use. Conditions are shared between rounds and never change.
func (s *Service) CreateCondition(ctx context.Context, kind models.ConditionKind, threshold int) (*models.Condition, error) {
	if err := tally.Validate(kind, threshold); err != nil {
		return nil, err
	}

	var c models.Condition
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vote_condition (id, kind, threshold) VALUES ($1, $2, $3)
			ON CONFLICT (kind, threshold) DO NOTHING
		`, newID(), string(kind), threshold)
		if err != nil {
			return fmt.Errorf("failed to insert condition: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			SELECT id, kind, threshold FROM vote_condition WHERE kind = $1 AND threshold = $2
		`, string(kind), threshold).Scan(&c.ID, &c.Kind, &c.Threshold)
		if err != nil {
			return fmt.Errorf("failed to query condition: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("create condition", err, "kind", kind, "threshold", threshold)
		return nil, err
	}
	return &c, nil
}

// AttachRound appends a round to the end of an election's chain; the first
// round becomes the election's first_round_id. req.After, when set, must
// name the current terminal round. req.NextRoundID may not point back into
// the chain the new round is appended to.
func (s *Service) AttachRound(ctx context.Context, actor *models.User, electionID string, req models.AttachRoundRequest) (*models.ElectionRound, error) {
	if !CanAdministerElection(actor, electionID) {
		return nil, ErrNotAuthorized
	}

	var round *models.ElectionRound
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Locking the election serializes concurrent appends to its chain
		e, err := s.loadElection(ctx, tx, electionID, true)
		if err != nil {
			return err
		}
		cond, err := loadCondition(ctx, tx, req.ConditionID)
		if err != nil {
			return err
		}
		chain, err := loadChain(ctx, tx, e)
		if err != nil {
			return err
		}

		inChain := func(id string) bool {
			for _, r := range chain {
				if r.ID == id {
					return true
				}
			}
			return false
		}

		var terminal *models.ElectionRound
		if len(chain) > 0 {
			terminal = chain[len(chain)-1]
		}

		if req.After != nil {
			if !inChain(*req.After) {
				return fmt.Errorf("%w: %s", ErrUnknownRound, *req.After)
			}
			if terminal.ID != *req.After {
				return fmt.Errorf("%w: %s is followed by %s", ErrRoundNotTerminal, *req.After, *findRound(chain, *req.After).NextRoundID)
			}
		}

		if req.NextRoundID != nil {
			// Every round in the chain precedes the appended round
			if inChain(*req.NextRoundID) {
				return fmt.Errorf("%w: round %s is already an ancestor", ErrCycleDetected, *req.NextRoundID)
			}
			return fmt.Errorf("%w: %s", ErrUnknownRound, *req.NextRoundID)
		}

		round = &models.ElectionRound{
			ID:                   newID(),
			ElectionID:           e.ID,
			Description:          strings.TrimSpace(req.Description),
			AdvancementCondition: *cond,
			OtherConditions:      []models.RoundCondition{},
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO election_round (id, election_id, condition_id, description, next_round_id, created_at)
			VALUES ($1, $2, $3, $4, NULL, $5)
		`, round.ID, round.ElectionID, cond.ID, round.Description, s.now())
		if err != nil {
			return fmt.Errorf("failed to insert round: %w", err)
		}

		if terminal == nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE election SET first_round_id = $1 WHERE id = $2 AND first_round_id IS NULL
			`, round.ID, e.ID)
		} else {
			var res sql.Result
			res, err = tx.ExecContext(ctx, `
				UPDATE election_round SET next_round_id = $1 WHERE id = $2 AND next_round_id IS NULL
			`, round.ID, terminal.ID)
			if err == nil {
				if n, _ := res.RowsAffected(); n != 1 {
					return fmt.Errorf("%w: %s", ErrRoundNotTerminal, terminal.ID)
				}
			}
		}
		if err != nil {
			return fmt.Errorf("failed to link round: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("attach round", err, "election_id", electionID)
		return nil, err
	}

	slog.Info("round attached", "election_id", electionID, "round_id", round.ID, "condition", round.AdvancementCondition.Kind)
	return round, nil
}

func findRound(chain []*models.ElectionRound, id string) *models.ElectionRound {
	for _, r := range chain {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// AddOtherCondition attaches an auxiliary condition to a round, such as
// "deposit returned" for more than 5% of the vote. Re-adding a condition
// replaces its effect.
func (s *Service) AddOtherCondition(ctx context.Context, actor *models.User, roundID string, req models.AddConditionRequest) (*models.ElectionRound, error) {
	effect := strings.TrimSpace(req.Effect)
	if effect == "" || len(effect) > maxNameLen {
		return nil, fmt.Errorf("%w: effect must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}

	var round *models.ElectionRound
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := roundForAdmin(ctx, tx, actor, roundID); err != nil {
			return err
		}
		if _, err := loadCondition(ctx, tx, req.ConditionID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO round_condition (round_id, condition_id, effect) VALUES ($1, $2, $3)
			ON CONFLICT (round_id, condition_id) DO UPDATE SET effect = excluded.effect
		`, roundID, req.ConditionID, effect)
		if err != nil {
			return fmt.Errorf("failed to insert round condition: %w", err)
		}

		round, err = loadRound(ctx, tx, roundID)
		return err
	})
	if err != nil {
		logFailure("add round condition", err, "round_id", roundID)
		return nil, err
	}

	slog.Info("round condition added", "round_id", roundID, "condition_id", req.ConditionID, "effect", effect)
	return round, nil
}

// RoundChain returns an election's rounds from first to terminal
func (s *Service) RoundChain(ctx context.Context, electionID string) ([]models.ElectionRound, error) {
	rounds := []models.ElectionRound{}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		e, err := s.loadElection(ctx, tx, electionID, false)
		if err != nil {
			return err
		}
		chain, err := loadChain(ctx, tx, e)
		if err != nil {
			return err
		}
		for _, r := range chain {
			rounds = append(rounds, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

// GetRound reads a single round with its conditions
func (s *Service) GetRound(ctx context.Context, id string) (*models.ElectionRound, error) {
	var r *models.ElectionRound
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		r, err = loadRound(ctx, tx, id)
		return err
	})
	return r, err
}
