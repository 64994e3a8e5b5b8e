// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
	"github.com/danielhkuo/quickly-elect/testutil"
)

// fixture is a global admin with one top-level location
type fixture struct {
	store    *db.Store
	svc      *service.Service
	admin    *models.User
	location *models.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, svc := testutil.SetupTestStore(t)
	admin := testutil.CreateTestAdmin(t, svc, "admin")
	loc := testutil.CreateTestLocation(t, svc, admin, "Country", nil)
	return &fixture{store: store, svc: svc, admin: admin, location: loc}
}

// election creates an election with a single top-1 round
func (f *fixture) election(t *testing.T, title string, rules models.RuleSet) (*models.Election, *models.ElectionRound) {
	t.Helper()

	e := testutil.CreateTestElection(t, f.svc, f.admin, f.location.ID, title, rules)
	r := testutil.AttachTestRound(t, f.svc, f.admin, e.ID, models.TopNVotes, 1)
	return e, r
}

func (f *fixture) countVotes(t *testing.T, candidateID string) int {
	t.Helper()

	var n int
	err := f.store.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM vote WHERE candidate_id = $1`, candidateID).Scan(&n)
	require.NoError(t, err)
	return n
}

func ptr(s string) *string {
	return &s
}
