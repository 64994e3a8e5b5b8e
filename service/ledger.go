// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
)

// RegisterCandidate enters a candidate into a round. Exactly one of
// req.UserID and req.DisplayName must be set. When the election's rule set
// bars candidates from voting the candidacy is recorded as ineligible; that
// is enforced when votes are cast.
func (s *Service) RegisterCandidate(ctx context.Context, electionID, roundID string, req models.RegisterCandidateRequest) (*models.Candidate, error) {
	var displayName *string
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > maxNameLen {
			return nil, fmt.Errorf("%w: display_name must be 1-%d characters", ErrInvalidInput, maxNameLen)
		}
		displayName = &name
	}
	if (req.UserID == nil) == (displayName == nil) {
		return nil, fmt.Errorf("%w: exactly one of user_id and display_name is required", ErrInvalidInput)
	}

	var c *models.Candidate
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		c, err = s.insertCandidate(ctx, tx, electionID, roundID, req.UserID, displayName)
		return err
	})
	if err != nil {
		logFailure("register candidate", err, "election_id", electionID, "round_id", roundID)
		return nil, err
	}

	slog.Info("candidate registered", "candidate_id", c.ID, "election_id", electionID, "round_id", roundID)
	return c, nil
}

func (s *Service) insertCandidate(ctx context.Context, tx *sql.Tx, electionID, roundID string, userID, displayName *string) (*models.Candidate, error) {
	e, err := s.loadElection(ctx, tx, electionID, false)
	if err != nil {
		return nil, err
	}
	r, err := loadRound(ctx, tx, roundID)
	if err != nil {
		return nil, err
	}
	if r.ElectionID != e.ID {
		return nil, fmt.Errorf("%w: %s is not a round of election %s", ErrUnknownRound, roundID, electionID)
	}

	var duplicate bool
	var conflict string
	if userID != nil {
		if err := requireUser(ctx, tx, *userID); err != nil {
			return nil, err
		}
		conflict = "user " + *userID
		duplicate, err = exists(ctx, tx, `
			SELECT 1 FROM candidate WHERE election_id = $1 AND round_id = $2 AND user_id = $3
		`, electionID, roundID, *userID)
	} else {
		conflict = fmt.Sprintf("%q", *displayName)
		duplicate, err = exists(ctx, tx, `
			SELECT 1 FROM candidate WHERE election_id = $1 AND round_id = $2 AND display_name = $3 AND user_id IS NULL
		`, electionID, roundID, *displayName)
	}
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, fmt.Errorf("%w: %s in round %s", ErrDuplicateCandidacy, conflict, roundID)
	}

	c := &models.Candidate{
		ID:          newID(),
		ElectionID:  electionID,
		RoundID:     roundID,
		UserID:      userID,
		DisplayName: displayName,
		CanVote:     e.RuleSet.CandidateCanVote,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, round_id, user_id, display_name, can_vote, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.ElectionID, c.RoundID, c.UserID, c.DisplayName, c.CanVote, s.now())
	if db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s in round %s", ErrDuplicateCandidacy, conflict, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert candidate: %w", err)
	}
	return c, nil
}

// RegisterVoter makes a user eligible to vote in every round of an election
func (s *Service) RegisterVoter(ctx context.Context, userID, electionID string) (*models.Voter, error) {
	v := &models.Voter{ID: newID(), UserID: userID, ElectionID: electionID}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.loadElection(ctx, tx, electionID, false); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		duplicate, err := exists(ctx, tx, `SELECT 1 FROM voter WHERE user_id = $1 AND election_id = $2`, userID, electionID)
		if err != nil {
			return err
		}
		if duplicate {
			return fmt.Errorf("%w: user %s in election %s", ErrDuplicateVoter, userID, electionID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO voter (id, user_id, election_id, revoked, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, v.ID, v.UserID, v.ElectionID, false, s.now())
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: user %s in election %s", ErrDuplicateVoter, userID, electionID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert voter: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("register voter", err, "user_id", userID, "election_id", electionID)
		return nil, err
	}

	slog.Info("voter registered", "voter_id", v.ID, "user_id", userID, "election_id", electionID)
	return v, nil
}

// RevokeVoter withdraws a voter registration. Votes already cast stay.
func (s *Service) RevokeVoter(ctx context.Context, actor *models.User, userID, electionID string) error {
	if !CanAdministerElection(actor, electionID) {
		return ErrNotAuthorized
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE voter SET revoked = $1 WHERE user_id = $2 AND election_id = $3
		`, true, userID, electionID)
		if err != nil {
			return fmt.Errorf("failed to revoke voter: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: user %s in election %s", ErrNotRegisteredVoter, userID, electionID)
		}
		return nil
	})
	if err != nil {
		logFailure("revoke voter", err, "user_id", userID, "election_id", electionID)
		return err
	}

	slog.Info("voter revoked", "user_id", userID, "election_id", electionID, "by", actor.ID)
	return nil
}

// CastVote records one vote by userID for a candidate. The round comes from
// the candidate. A non-empty nonce makes the call replayable: repeating it
// returns the vote already recorded with created set to false.
//
// The voter row is locked for the duration, so concurrent votes by the same
// voter are checked against the quota one at a time.
func (s *Service) CastVote(ctx context.Context, userID, candidateID, nonce string) (*models.Vote, bool, error) {
	if len(nonce) > maxNameLen {
		return nil, false, fmt.Errorf("%w: nonce must be at most %d characters", ErrInvalidInput, maxNameLen)
	}

	var vote *models.Vote
	var created bool
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		c, err := loadCandidate(ctx, tx, candidateID)
		if err != nil {
			return err
		}
		e, err := s.loadElection(ctx, tx, c.ElectionID, false)
		if err != nil {
			return err
		}

		var voterID string
		var revoked bool
		err = tx.QueryRowContext(ctx, `
			SELECT id, revoked FROM voter WHERE user_id = $1 AND election_id = $2
		`+s.store.ForUpdate(), userID, e.ID).Scan(&voterID, &revoked)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && revoked) {
			return fmt.Errorf("%w: user %s in election %s", ErrNotRegisteredVoter, userID, e.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to query voter: %w", err)
		}

		if nonce != "" {
			vote, err = voteByNonce(ctx, tx, voterID, candidateID, nonce)
			if err != nil || vote != nil {
				return err
			}
		}

		if c.UserID != nil && *c.UserID == userID {
			if !c.CanVote {
				return ErrCandidateIneligible
			}
			if !e.RuleSet.CandidateCanVoteForSelf {
				return ErrSelfVoteForbidden
			}
		}

		var inRound, forCandidate int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*), COALESCE(SUM(CASE WHEN candidate_id = $3 THEN 1 ELSE 0 END), 0)
			FROM vote WHERE voter_id = $1 AND round_id = $2
		`, voterID, c.RoundID, candidateID).Scan(&inRound, &forCandidate)
		if err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		if inRound >= e.RuleSet.VotesPerVoter {
			return fmt.Errorf("%w: %d of %d votes used in this round", ErrQuotaExceeded, inRound, e.RuleSet.VotesPerVoter)
		}
		if forCandidate >= e.RuleSet.VotesPerVoterPerCandidate {
			return fmt.Errorf("%w: %d of %d votes used for this candidate", ErrQuotaExceeded, forCandidate, e.RuleSet.VotesPerVoterPerCandidate)
		}

		vote = &models.Vote{
			ID:          newID(),
			VoterID:     voterID,
			CandidateID: candidateID,
			RoundID:     c.RoundID,
			CastAt:      s.now(),
		}
		var storedNonce *string
		if nonce != "" {
			storedNonce = &nonce
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote (id, voter_id, candidate_id, round_id, nonce, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, vote.ID, vote.VoterID, vote.CandidateID, vote.RoundID, storedNonce, vote.CastAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate submission", ErrQuotaExceeded)
		}
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		logFailure("cast vote", err, "user_id", userID, "candidate_id", candidateID)
		return nil, false, err
	}

	if created {
		slog.Info("vote cast", "vote_id", vote.ID, "round_id", vote.RoundID, "candidate_id", candidateID)
	} else {
		slog.Debug("vote replayed", "vote_id", vote.ID, "candidate_id", candidateID)
	}
	return vote, created, nil
}

func voteByNonce(ctx context.Context, tx *sql.Tx, voterID, candidateID, nonce string) (*models.Vote, error) {
	var v models.Vote
	err := tx.QueryRowContext(ctx, `
		SELECT id, voter_id, candidate_id, round_id, cast_at
		FROM vote WHERE voter_id = $1 AND candidate_id = $2 AND nonce = $3
	`, voterID, candidateID, nonce).Scan(&v.ID, &v.VoterID, &v.CandidateID, &v.RoundID, &v.CastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}
	return &v, nil
}
