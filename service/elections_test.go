// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
	"github.com/danielhkuo/quickly-elect/testutil"
)

func TestCreateElection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.CreateElection(ctx, f.admin, models.CreateElectionRequest{
		Title:           "Mayor",
		LocationID:      f.location.ID,
		PotentialVoters: 1000,
		DateOfVote:      "2025-11-04",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRuleSet(), e.RuleSet)
	assert.Nil(t, e.FirstRoundID)

	stored, err := f.svc.GetElection(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mayor", stored.Title)
	assert.Equal(t, "2025-11-04", stored.DateOfVote)

	admin := testutil.Reload(t, f.svc, f.admin)
	assert.Contains(t, admin.AdministeredElections, e.ID)
}

func TestCreateElectionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateTestElection(t, f.svc, f.admin, f.location.ID, "Mayor", models.DefaultRuleSet())
	alice := testutil.CreateTestUser(t, f.svc, "alice")

	valid := func() models.CreateElectionRequest {
		return models.CreateElectionRequest{
			Title:           "Council",
			LocationID:      f.location.ID,
			PotentialVoters: 10,
			DateOfVote:      testutil.TestDate,
		}
	}

	tests := []struct {
		name    string
		actor   *models.User
		modify  func(*models.CreateElectionRequest)
		wantErr error
	}{
		{"duplicate", f.admin, func(r *models.CreateElectionRequest) { r.Title = "Mayor" }, service.ErrDuplicateElection},
		{"unknown location", f.admin, func(r *models.CreateElectionRequest) { r.LocationID = "missing" }, service.ErrInvalidLocation},
		{"not authorized", alice, func(r *models.CreateElectionRequest) {}, service.ErrNotAuthorized},
		{"empty title", f.admin, func(r *models.CreateElectionRequest) { r.Title = "" }, service.ErrInvalidInput},
		{"no voters", f.admin, func(r *models.CreateElectionRequest) { r.PotentialVoters = 0 }, service.ErrInvalidInput},
		{"bad date", f.admin, func(r *models.CreateElectionRequest) { r.DateOfVote = "04/11/2025" }, service.ErrInvalidInput},
		{"zero quota", f.admin, func(r *models.CreateElectionRequest) {
			r.RuleSet = &models.RuleSet{VotesPerVoter: 0, VotesPerVoterPerCandidate: 1}
		}, service.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(&req)
			_, err := f.svc.CreateElection(ctx, tt.actor, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Same title on another date is a different election
	req := valid()
	req.Title = "Mayor"
	req.DateOfVote = "2026-11-03"
	_, err := f.svc.CreateElection(ctx, f.admin, req)
	assert.NoError(t, err)
}

func TestListElections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	north := testutil.CreateTestLocation(t, f.svc, f.admin, "North", &f.location.ID)
	south := testutil.CreateTestLocation(t, f.svc, f.admin, "South", &f.location.ID)

	e, r := f.election(t, "National", models.DefaultRuleSet())
	testutil.AddTestCandidate(t, f.svc, e.ID, r.ID, "Ann")
	testutil.AddTestCandidate(t, f.svc, e.ID, r.ID, "Ben")
	northern := testutil.CreateTestElection(t, f.svc, f.admin, north.ID, "Northern", models.DefaultRuleSet())
	testutil.CreateTestElection(t, f.svc, f.admin, south.ID, "Southern", models.DefaultRuleSet())

	all, err := f.svc.ListElections(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "National", all[0].Election.Title)
	assert.Equal(t, "Country", all[0].Location)
	assert.Equal(t, []string{"Ann", "Ben"}, all[0].Candidates)

	within, err := f.svc.ListElections(ctx, &north.ID)
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, northern.ID, within[0].Election.ID)
	assert.Equal(t, "Country/North", within[0].Location)
	assert.Empty(t, within[0].Candidates)

	_, err = f.svc.ListElections(ctx, ptr("missing"))
	assert.ErrorIs(t, err, service.ErrUnknownLocation)
}
