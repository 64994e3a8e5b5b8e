// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-elect/db"
)

const maxNameLen = 255

// Service exposes the election domain operations. Every mutating call runs
// in a single store transaction.
type Service struct {
	store *db.Store
	now   func() time.Time
}

func New(store *db.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func newID() string {
	return uuid.NewString()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
