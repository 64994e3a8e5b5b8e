// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
)

func validateRuleSet(r models.RuleSet) error {
	if r.VotesPerVoter < 1 {
		return fmt.Errorf("%w: votes_per_voter must be at least 1", ErrInvalidInput)
	}
	if r.VotesPerVoterPerCandidate < 1 {
		return fmt.Errorf("%w: votes_per_voter_per_candidate must be at least 1", ErrInvalidInput)
	}
	return nil
}

// CreateElection defines an election at a location. The actor must be a
// global admin or administer the location, and becomes an admin of the new
// election. (title, location, date) is unique.
func (s *Service) CreateElection(ctx context.Context, actor *models.User, req models.CreateElectionRequest) (*models.Election, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > maxNameLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}
	if req.PotentialVoters < 1 {
		return nil, fmt.Errorf("%w: potential_voters must be positive", ErrInvalidInput)
	}
	date, err := time.Parse(models.DateLayout, req.DateOfVote)
	if err != nil {
		return nil, fmt.Errorf("%w: date_of_vote must be YYYY-MM-DD", ErrInvalidInput)
	}
	rules := models.DefaultRuleSet()
	if req.RuleSet != nil {
		rules = *req.RuleSet
	}
	if err := validateRuleSet(rules); err != nil {
		return nil, err
	}

	if !actor.IsGlobalAdmin && !actor.AdministersLocation(req.LocationID) {
		return nil, ErrNotAuthorized
	}

	e := &models.Election{
		ID:              newID(),
		Title:           title,
		LocationID:      req.LocationID,
		PotentialVoters: req.PotentialVoters,
		DateOfVote:      date.Format(models.DateLayout),
		RuleSet:         rules,
		CreatedAt:       s.now(),
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM location WHERE id = $1`, e.LocationID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrInvalidLocation, e.LocationID)
		}

		duplicate, err := exists(ctx, tx, `
			SELECT 1 FROM election WHERE title = $1 AND location_id = $2 AND date_of_vote = $3
		`, e.Title, e.LocationID, e.DateOfVote)
		if err != nil {
			return err
		}
		if duplicate {
			return fmt.Errorf("%w: %q on %s", ErrDuplicateElection, e.Title, e.DateOfVote)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO election (id, title, location_id, potential_voters, date_of_vote,
				votes_per_voter, votes_per_voter_per_candidate, candidate_can_vote,
				candidate_can_vote_for_self, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, e.ID, e.Title, e.LocationID, e.PotentialVoters, e.DateOfVote,
			rules.VotesPerVoter, rules.VotesPerVoterPerCandidate, rules.CandidateCanVote,
			rules.CandidateCanVoteForSelf, e.CreatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q on %s", ErrDuplicateElection, e.Title, e.DateOfVote)
		}
		if err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}

		return grantElectionAdmin(ctx, tx, actor.ID, e.ID)
	})
	if err != nil {
		logFailure("create election", err, "title", title, "location_id", req.LocationID)
		return nil, err
	}

	slog.Info("election created", "election_id", e.ID, "title", e.Title, "location_id", e.LocationID, "by", actor.ID)
	return e, nil
}

// GetElection reads a single election
func (s *Service) GetElection(ctx context.Context, id string) (*models.Election, error) {
	var e *models.Election
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		e, err = s.loadElection(ctx, tx, id, false)
		return err
	})
	return e, err
}

// ListElections summarizes elections with their location path and the
// candidates standing in their first round. A non-nil within restricts the
// list to elections held at that location or anywhere below it.
func (s *Service) ListElections(ctx context.Context, within *string) ([]models.ElectionSummary, error) {
	summaries := []models.ElectionSummary{}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		locations, err := allLocations(ctx, tx)
		if err != nil {
			return err
		}
		if within != nil {
			if _, ok := locations[*within]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownLocation, *within)
			}
		}

		rows, err := tx.QueryContext(ctx, `SELECT `+electionColumns+` FROM election ORDER BY date_of_vote, title, id`)
		if err != nil {
			return fmt.Errorf("failed to query elections: %w", err)
		}
		var elections []*models.Election
		for rows.Next() {
			e, err := scanElection(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan election: %w", err)
			}
			if within == nil || withinIn(locations, e.LocationID, *within) {
				elections = append(elections, e)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, e := range elections {
			names := []string{}
			if e.FirstRoundID != nil {
				names, err = candidateNames(ctx, tx, *e.FirstRoundID)
				if err != nil {
					return err
				}
			}
			summaries = append(summaries, models.ElectionSummary{
				Election:   *e,
				Location:   strings.Join(pathIn(locations, e.LocationID), "/"),
				Candidates: names,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// candidateNames renders a round's candidates: the user's name when the
// candidacy is user-backed, the free-text name otherwise
func candidateNames(ctx context.Context, tx *sql.Tx, roundID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT COALESCE(u.name, c.display_name)
		FROM candidate c
		LEFT JOIN app_user u ON u.id = c.user_id
		WHERE c.round_id = $1
		ORDER BY c.created_at, c.id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
