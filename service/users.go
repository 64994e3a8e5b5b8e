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

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
)

const maxUserNameLen = 64

// RegisterUser creates an account. Name and email are both unique.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || len(name) > maxUserNameLen {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxUserNameLen)
	}
	if !strings.Contains(email, "@") || len(email) > maxNameLen {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(name, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	code, err := auth.GenerateID(16)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:                    newID(),
		Name:                  name,
		Email:                 email,
		PasswordHash:          hash,
		Active:                true,
		ConfirmationCode:      code,
		CreatedAt:             s.now(),
		AdministeredLocations: []string{},
		AdministeredElections: []string{},
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, field := range []struct{ column, value string }{{"name", name}, {"email", email}} {
			taken, err := exists(ctx, tx, `SELECT 1 FROM app_user WHERE `+field.column+` = $1`, field.value)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s %q", ErrDuplicateUser, field.column, field.value)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO app_user (id, name, email, password_hash, is_global_admin, active, confirmation_code, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, u.ID, u.Name, u.Email, u.PasswordHash, false, true, u.ConfirmationCode, u.CreatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateUser, name)
		}
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("register user", err, "name", name)
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "name", u.Name)
	return u, nil
}

// Authenticate checks a name/password pair. Unknown users, inactive users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	var u *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		u, err = loadUser(ctx, tx, "name", name)
		return err
	})
	if errors.Is(err, ErrUnknownUser) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !u.Active || auth.VerifyPassword(u.Name, password, u.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser reads a user together with their admin grants
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		u, err = loadUser(ctx, tx, "id", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// loadUser reads a user by a unique column ("id" or "name")
func loadUser(ctx context.Context, tx *sql.Tx, column, value string) (*models.User, error) {
	var u models.User
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, is_global_admin, active, confirmation_code, created_at
		FROM app_user WHERE `+column+` = $1
	`, value).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsGlobalAdmin, &u.Active,
		&u.ConfirmationCode, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.AdministeredLocations, err = queryIDs(ctx, tx, `
		SELECT location_id FROM location_admin WHERE user_id = $1 ORDER BY location_id
	`, u.ID)
	if err != nil {
		return nil, err
	}
	u.AdministeredElections, err = queryIDs(ctx, tx, `
		SELECT election_id FROM election_admin WHERE user_id = $1 ORDER BY election_id
	`, u.ID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BootstrapGlobalAdmin promotes the named user without an acting admin.
// It is only reachable from process startup.
func (s *Service) BootstrapGlobalAdmin(ctx context.Context, name string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE app_user SET is_global_admin = $1 WHERE name = $2`, true, name)
		if err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownUser, name)
		}
		return nil
	})
	if err != nil {
		logFailure("bootstrap admin", err, "name", name)
		return err
	}
	slog.Info("global admin bootstrapped", "name", name)
	return nil
}

// PromoteGlobalAdmin grants the global-admin flag. Only global admins may.
func (s *Service) PromoteGlobalAdmin(ctx context.Context, actor *models.User, userID string) error {
	return s.setGlobalAdmin(ctx, actor, userID, true)
}

// DemoteGlobalAdmin clears the global-admin flag. Only global admins may.
func (s *Service) DemoteGlobalAdmin(ctx context.Context, actor *models.User, userID string) error {
	return s.setGlobalAdmin(ctx, actor, userID, false)
}

func (s *Service) setGlobalAdmin(ctx context.Context, actor *models.User, userID string, admin bool) error {
	if !actor.IsGlobalAdmin {
		return ErrNotAuthorized
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE app_user SET is_global_admin = $1 WHERE id = $2`, admin, userID)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return nil
	})
	if err != nil {
		logFailure("set global admin", err, "user_id", userID)
		return err
	}
	slog.Info("global admin changed", "user_id", userID, "admin", admin, "by", actor.ID)
	return nil
}

// GrantLocationAdmin lets userID administer locationID. The actor must be a
// global admin or administer the location already. Granting twice is a no-op.
func (s *Service) GrantLocationAdmin(ctx context.Context, actor *models.User, userID, locationID string) error {
	if !actor.IsGlobalAdmin && !actor.AdministersLocation(locationID) {
		return ErrNotAuthorized
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		found, err := exists(ctx, tx, `SELECT 1 FROM location WHERE id = $1`, locationID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownLocation, locationID)
		}
		return grantLocationAdmin(ctx, tx, userID, locationID)
	})
	if err != nil {
		logFailure("grant location admin", err, "user_id", userID, "location_id", locationID)
		return err
	}
	slog.Info("location admin granted", "user_id", userID, "location_id", locationID, "by", actor.ID)
	return nil
}

// RevokeLocationAdmin removes a location-admin grant if present
func (s *Service) RevokeLocationAdmin(ctx context.Context, actor *models.User, userID, locationID string) error {
	if !actor.IsGlobalAdmin && !actor.AdministersLocation(locationID) {
		return ErrNotAuthorized
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM location_admin WHERE user_id = $1 AND location_id = $2
		`, userID, locationID)
		if err != nil {
			return fmt.Errorf("failed to revoke location admin: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("revoke location admin", err, "user_id", userID, "location_id", locationID)
		return err
	}
	slog.Info("location admin revoked", "user_id", userID, "location_id", locationID, "by", actor.ID)
	return nil
}

// GrantElectionAdmin lets userID administer electionID
func (s *Service) GrantElectionAdmin(ctx context.Context, actor *models.User, userID, electionID string) error {
	if !CanAdministerElection(actor, electionID) {
		return ErrNotAuthorized
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := s.loadElection(ctx, tx, electionID, false); err != nil {
			return err
		}
		return grantElectionAdmin(ctx, tx, userID, electionID)
	})
	if err != nil {
		logFailure("grant election admin", err, "user_id", userID, "election_id", electionID)
		return err
	}
	slog.Info("election admin granted", "user_id", userID, "election_id", electionID, "by", actor.ID)
	return nil
}

// RevokeElectionAdmin removes an election-admin grant if present
func (s *Service) RevokeElectionAdmin(ctx context.Context, actor *models.User, userID, electionID string) error {
	if !CanAdministerElection(actor, electionID) {
		return ErrNotAuthorized
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM election_admin WHERE user_id = $1 AND election_id = $2
		`, userID, electionID)
		if err != nil {
			return fmt.Errorf("failed to revoke election admin: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure("revoke election admin", err, "user_id", userID, "election_id", electionID)
		return err
	}
	slog.Info("election admin revoked", "user_id", userID, "election_id", electionID, "by", actor.ID)
	return nil
}

func requireUser(ctx context.Context, tx *sql.Tx, userID string) error {
	found, err := exists(ctx, tx, `SELECT 1 FROM app_user WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return nil
}

func grantLocationAdmin(ctx context.Context, tx *sql.Tx, userID, locationID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO location_admin (user_id, location_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, locationID)
	if err != nil {
		return fmt.Errorf("failed to grant location admin: %w", err)
	}
	return nil
}

func grantElectionAdmin(ctx context.Context, tx *sql.Tx, userID, electionID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO election_admin (user_id, election_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, electionID)
	if err != nil {
		return fmt.Errorf("failed to grant election admin: %w", err)
	}
	return nil
}
