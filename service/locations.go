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

// CreateLocation adds a leaf to the location tree and makes the actor its
// admin. Top-level locations need a global admin; anyone else may only add
// children to locations they administer. Since only new leaves are ever
// added, the parent graph stays acyclic.
func (s *Service) CreateLocation(ctx context.Context, actor *models.User, name string, parentID *string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("%w: location name must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}

	// Authorization comes before existence checks so that non-admins
	// cannot probe which locations exist
	if parentID == nil && !CanCreateTopLevelLocation(actor) {
		return nil, ErrNotAuthorized
	}
	if parentID != nil && !actor.IsGlobalAdmin && !actor.AdministersLocation(*parentID) {
		return nil, ErrNotAuthorized
	}

	loc := &models.Location{ID: newID(), Name: name, ParentID: parentID}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var duplicate bool
		var err error
		if parentID == nil {
			duplicate, err = exists(ctx, tx, `SELECT 1 FROM location WHERE name = $1 AND parent_id IS NULL`, name)
		} else {
			found, lookupErr := exists(ctx, tx, `SELECT 1 FROM location WHERE id = $1`, *parentID)
			if lookupErr != nil {
				return lookupErr
			}
			if !found {
				return fmt.Errorf("%w: %s", ErrInvalidParent, *parentID)
			}
			duplicate, err = exists(ctx, tx, `SELECT 1 FROM location WHERE name = $1 AND parent_id = $2`, name, *parentID)
		}
		if err != nil {
			return err
		}
		if duplicate {
			return duplicateLocation(ctx, tx, name, parentID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO location (id, name, parent_id, created_at)
			VALUES ($1, $2, $3, $4)
		`, loc.ID, loc.Name, loc.ParentID, s.now())
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateLocation, name)
		}
		if err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}

		return grantLocationAdmin(ctx, tx, actor.ID, loc.ID)
	})
	if err != nil {
		logFailure("create location", err, "name", name)
		return nil, err
	}

	slog.Info("location created", "location_id", loc.ID, "name", loc.Name, "by", actor.ID)
	return loc, nil
}

func duplicateLocation(ctx context.Context, tx *sql.Tx, name string, parentID *string) error {
	if parentID == nil {
		return fmt.Errorf("%w: %q at top level", ErrDuplicateLocation, name)
	}
	path, err := locationPath(ctx, tx, *parentID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %q under %s", ErrDuplicateLocation, name, strings.Join(path, "/"))
}

// GetLocation reads a single location
func (s *Service) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	var loc *models.Location
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		loc, err = loadLocation(ctx, tx, id)
		return err
	})
	return loc, err
}

// AncestorPath returns location names from the root down to id
func (s *Service) AncestorPath(ctx context.Context, id string) ([]string, error) {
	var path []string
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		path, err = locationPath(ctx, tx, id)
		return err
	})
	return path, err
}

// IsDescendantOf reports whether candidateID lies strictly below ancestorID
func (s *Service) IsDescendantOf(ctx context.Context, candidateID, ancestorID string) (bool, error) {
	var found bool
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		loc, err := loadLocation(ctx, tx, candidateID)
		if err != nil {
			return err
		}

		seen := map[string]bool{loc.ID: true}
		for parent := loc.ParentID; parent != nil; {
			if *parent == ancestorID {
				found = true
				return nil
			}
			if seen[*parent] {
				return fmt.Errorf("%w: location %s is its own ancestor", ErrCycleDetected, *parent)
			}
			seen[*parent] = true

			next, err := loadLocation(ctx, tx, *parent)
			if err != nil {
				return err
			}
			parent = next.ParentID
		}
		return nil
	})
	return found, err
}

func loadLocation(ctx context.Context, tx *sql.Tx, id string) (*models.Location, error) {
	var loc models.Location
	var parent sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, parent_id FROM location WHERE id = $1
	`, id).Scan(&loc.ID, &loc.Name, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	loc.ParentID = nullableString(parent)
	return &loc, nil
}

// locationPath walks parent pointers with one indexed lookup per level
func locationPath(ctx context.Context, tx *sql.Tx, id string) ([]string, error) {
	var reversed []string
	seen := make(map[string]bool)
	for next := &id; next != nil; {
		if seen[*next] {
			return nil, fmt.Errorf("%w: location %s is its own ancestor", ErrCycleDetected, *next)
		}
		seen[*next] = true

		loc, err := loadLocation(ctx, tx, *next)
		if err != nil {
			return nil, err
		}
		reversed = append(reversed, loc.Name)
		next = loc.ParentID
	}

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}
	return path, nil
}

// allLocations loads the whole tree keyed by id
func allLocations(ctx context.Context, tx *sql.Tx) (map[string]*models.Location, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, parent_id FROM location`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := make(map[string]*models.Location)
	for rows.Next() {
		var loc models.Location
		var parent sql.NullString
		if err := rows.Scan(&loc.ID, &loc.Name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		loc.ParentID = nullableString(parent)
		locations[loc.ID] = &loc
	}
	return locations, rows.Err()
}

// pathIn renders a location's path from an already loaded tree
func pathIn(locations map[string]*models.Location, id string) []string {
	var reversed []string
	seen := make(map[string]bool)
	for next := &id; next != nil && !seen[*next]; {
		seen[*next] = true
		loc, ok := locations[*next]
		if !ok {
			break
		}
		reversed = append(reversed, loc.Name)
		next = loc.ParentID
	}

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}
	return path
}

// withinIn reports whether id is ancestorID or lies below it
func withinIn(locations map[string]*models.Location, id, ancestorID string) bool {
	seen := make(map[string]bool)
	for next := &id; next != nil && !seen[*next]; {
		if *next == ancestorID {
			return true
		}
		seen[*next] = true
		loc, ok := locations[*next]
		if !ok {
			return false
		}
		next = loc.ParentID
	}
	return false
}
