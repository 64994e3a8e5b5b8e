// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielhkuo/quickly-elect/models"
)

// CanCreateTopLevelLocation is true only for global admins
func CanCreateTopLevelLocation(u *models.User) bool {
	return u.IsGlobalAdmin
}

// CanAdministerElection is true for global admins and direct election admins
func CanAdministerElection(u *models.User, electionID string) bool {
	return u.IsGlobalAdmin || u.AdministersElection(electionID)
}

// AuthorizedLocations lists the locations u may act on, each rendered as its
// root-first path joined by "/". Global admins get every location plus the
// top-level choice ("-", nil ID) first. Everyone else gets exactly their
// directly administered locations; children are not included. With mutating
// set, an empty result is ErrNotAuthorized.
func (s *Service) AuthorizedLocations(ctx context.Context, u *models.User, mutating bool) ([]models.LocationChoice, error) {
	choices := []models.LocationChoice{}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if u.IsGlobalAdmin {
			locations, err := allLocations(ctx, tx)
			if err != nil {
				return err
			}
			for id := range locations {
				choices = append(choices, models.LocationChoice{
					ID:      &id,
					Display: strings.Join(pathIn(locations, id), "/"),
				})
			}
			return nil
		}

		// The grant relation is read directly rather than trusting a stale handle
		administered, err := queryIDs(ctx, tx, `
			SELECT location_id FROM location_admin WHERE user_id = $1
		`, u.ID)
		if err != nil {
			return err
		}
		for _, id := range administered {
			path, err := locationPath(ctx, tx, id)
			if errors.Is(err, ErrUnknownLocation) {
				continue
			}
			if err != nil {
				return err
			}
			choices = append(choices, models.LocationChoice{ID: &id, Display: strings.Join(path, "/")})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(choices, func(i, j int) bool {
		if choices[i].Display != choices[j].Display {
			return choices[i].Display < choices[j].Display
		}
		return *choices[i].ID < *choices[j].ID
	})
	if CanCreateTopLevelLocation(u) {
		choices = append([]models.LocationChoice{{ID: nil, Display: models.TopLevelDisplay}}, choices...)
	}

	if mutating && len(choices) == 0 {
		return nil, ErrNotAuthorized
	}
	return choices, nil
}

// AuthorizedElections lists every election for global admins and the
// directly administered ones for everyone else
func (s *Service) AuthorizedElections(ctx context.Context, u *models.User) ([]models.Election, error) {
	elections := []models.Election{}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `SELECT ` + electionColumns + ` FROM election ORDER BY date_of_vote, title, id`
		var args []any
		if !u.IsGlobalAdmin {
			query = `SELECT ` + electionColumns + ` FROM election
				WHERE id IN (SELECT election_id FROM election_admin WHERE user_id = $1)
				ORDER BY date_of_vote, title, id`
			args = append(args, u.ID)
		}

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query elections: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanElection(rows)
			if err != nil {
				return fmt.Errorf("failed to scan election: %w", err)
			}
			elections = append(elections, *e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return elections, nil
}
