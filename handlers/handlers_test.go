// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
	"github.com/danielhkuo/quickly-elect/testutil"
)

// serve runs an authenticated handler the way the router mounts it
func serve(svc *service.Service, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.WithUser(svc, h)(w, req)
	return w
}

func TestRegisterUser(t *testing.T) {
	_, svc := testutil.SetupTestStore(t)
	handler := NewUserHandler(svc)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"valid", models.RegisterUserRequest{Name: "alice", Email: "alice@example.org", Password: "pw"}, http.StatusCreated},
		{"duplicate", models.RegisterUserRequest{Name: "alice", Email: "other@example.org", Password: "pw"}, http.StatusConflict},
		{"missing password", models.RegisterUserRequest{Name: "bob", Email: "bob@example.org"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"username": "carol"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Register(w, testutil.MakeRequest("POST", "/users", tt.body, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				assert.NotContains(t, w.Body.String(), "password")
				var u models.User
				testutil.AssertJSON(t, w, &u)
				assert.Equal(t, "alice", u.Name)
			}
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	_, svc := testutil.SetupTestStore(t)
	testutil.CreateTestUser(t, svc, "alice")
	handler := NewLocationHandler(svc)

	w := serve(svc, handler.Choices, testutil.MakeRequest("GET", "/locations/choices", nil, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	req := testutil.MakeRequest("GET", "/locations/choices", nil, nil)
	req.SetBasicAuth("alice", "wrong")
	w = serve(svc, handler.Choices, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = serve(svc, handler.Choices, testutil.MakeRequest("GET", "/locations/choices", nil, testutil.BasicAuth("alice")))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(svc, handler.Choices, testutil.MakeRequest("GET", "/locations/choices?mutating=true", nil, testutil.BasicAuth("alice")))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestLocationHandlers(t *testing.T) {
	_, svc := testutil.SetupTestStore(t)
	testutil.CreateTestAdmin(t, svc, "admin")
	testutil.CreateTestUser(t, svc, "alice")
	handler := NewLocationHandler(svc)

	w := serve(svc, handler.Create, testutil.MakeRequest("POST", "/locations", models.CreateLocationRequest{Name: "Country"}, testutil.BasicAuth("admin")))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var country models.Location
	testutil.AssertJSON(t, w, &country)

	w = serve(svc, handler.Create, testutil.MakeRequest("POST", "/locations", models.CreateLocationRequest{Name: "North", ParentID: &country.ID}, testutil.BasicAuth("admin")))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var north models.Location
	testutil.AssertJSON(t, w, &north)

	w = serve(svc, handler.Create, testutil.MakeRequest("POST", "/locations", models.CreateLocationRequest{Name: "North", ParentID: &country.ID}, testutil.BasicAuth("admin")))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = serve(svc, handler.Create, testutil.MakeRequest("POST", "/locations", models.CreateLocationRequest{Name: "South", ParentID: &country.ID}, testutil.BasicAuth("alice")))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	req := testutil.MakeRequest("GET", "/locations/"+north.ID+"/path", nil, testutil.BasicAuth("alice"))
	req.SetPathValue("id", north.ID)
	w = serve(svc, handler.Path, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	var path models.AncestorPathResponse
	testutil.AssertJSON(t, w, &path)
	assert.Equal(t, []string{"Country", "North"}, path.Path)
}

// votingFixture creates an election with one round and one candidate
// through the handlers
func votingFixture(t *testing.T, svc *service.Service, rules models.RuleSet) (electionID, roundID, candidateID string) {
	t.Helper()

	admin := testutil.CreateTestAdmin(t, svc, "admin")
	loc := testutil.CreateTestLocation(t, svc, admin, "Country", nil)
	e := testutil.CreateTestElection(t, svc, admin, loc.ID, "Mayor", rules)
	cond, err := svc.CreateCondition(t.Context(), models.TopNVotes, 1)
	require.NoError(t, err)

	elections := NewElectionHandler(svc)
	req := testutil.MakeRequest("POST", "/elections/"+e.ID+"/rounds", models.AttachRoundRequest{ConditionID: cond.ID, Description: "final"}, testutil.BasicAuth("admin"))
	req.SetPathValue("id", e.ID)
	w := serve(svc, elections.AttachRound, req)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var round models.ElectionRound
	testutil.AssertJSON(t, w, &round)

	voting := NewVotingHandler(svc)
	req = testutil.MakeRequest("POST", "/rounds/"+round.ID+"/candidates", models.RegisterCandidateRequest{DisplayName: ptr("Ann")}, testutil.BasicAuth("admin"))
	req.SetPathValue("id", round.ID)
	w = serve(svc, voting.RegisterCandidate, req)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var c models.Candidate
	testutil.AssertJSON(t, w, &c)

	return e.ID, round.ID, c.ID
}

func ptr(s string) *string {
	return &s
}

func TestVotingFlow(t *testing.T) {
	_, svc := testutil.SetupTestStore(t)
	electionID, roundID, candidateID := votingFixture(t, svc, models.DefaultRuleSet())
	testutil.CreateTestUser(t, svc, "voter")
	voting := NewVotingHandler(svc)

	// Self registration with an empty body
	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/voters", nil, testutil.BasicAuth("voter"))
	req.SetPathValue("id", electionID)
	testutil.AssertStatus(t, serve(svc, voting.RegisterVoter, req), http.StatusCreated)

	vote := func(key string) *httptest.ResponseRecorder {
		headers := testutil.BasicAuth("voter")
		if key != "" {
			headers[middleware.IdempotencyKeyHeader] = key
		}
		req := testutil.MakeRequest("POST", "/candidates/"+candidateID+"/votes", nil, headers)
		req.SetPathValue("id", candidateID)
		return serve(svc, voting.CastVote, req)
	}

	w := vote("k1")
	testutil.AssertStatus(t, w, http.StatusCreated)
	var first models.CastVoteResponse
	testutil.AssertJSON(t, w, &first)
	assert.True(t, first.Created)
	assert.Equal(t, roundID, first.Vote.RoundID)

	w = vote("k1")
	testutil.AssertStatus(t, w, http.StatusOK)
	var replay models.CastVoteResponse
	testutil.AssertJSON(t, w, &replay)
	assert.False(t, replay.Created)
	assert.Equal(t, first.Vote.ID, replay.Vote.ID)

	testutil.AssertStatus(t, vote(""), http.StatusUnprocessableEntity)

	results := NewResultsHandler(svc)
	req = testutil.MakeRequest("GET", "/rounds/"+roundID+"/results", nil, testutil.BasicAuth("voter"))
	req.SetPathValue("id", roundID)
	w = serve(svc, results.GetResults, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	var result models.RoundResult
	testutil.AssertJSON(t, w, &result)
	assert.Equal(t, 1, result.TotalVotes)
	assert.Equal(t, []string{candidateID}, result.Advancing)

	// Only admins advance rounds
	req = testutil.MakeRequest("POST", "/rounds/"+roundID+"/advance", nil, testutil.BasicAuth("voter"))
	req.SetPathValue("id", roundID)
	testutil.AssertStatus(t, serve(svc, results.Advance, req), http.StatusForbidden)

	req = testutil.MakeRequest("POST", "/rounds/"+roundID+"/advance", nil, testutil.BasicAuth("admin"))
	req.SetPathValue("id", roundID)
	testutil.AssertStatus(t, serve(svc, results.Advance, req), http.StatusOK)
}

func TestRegisterVoterForOthers(t *testing.T) {
	_, svc := testutil.SetupTestStore(t)
	electionID, _, _ := votingFixture(t, svc, models.DefaultRuleSet())
	alice := testutil.CreateTestUser(t, svc, "alice")
	testutil.CreateTestUser(t, svc, "bob")
	voting := NewVotingHandler(svc)

	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/voters", models.RegisterVoterRequest{UserID: alice.ID}, testutil.BasicAuth("bob"))
	req.SetPathValue("id", electionID)
	testutil.AssertStatus(t, serve(svc, voting.RegisterVoter, req), http.StatusForbidden)

	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/voters", models.RegisterVoterRequest{UserID: alice.ID}, testutil.BasicAuth("admin"))
	req.SetPathValue("id", electionID)
	testutil.AssertStatus(t, serve(svc, voting.RegisterVoter, req), http.StatusCreated)

	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/voters", models.RegisterVoterRequest{UserID: alice.ID}, testutil.BasicAuth("admin"))
	req.SetPathValue("id", electionID)
	testutil.AssertStatus(t, serve(svc, voting.RegisterVoter, req), http.StatusConflict)

	req = testutil.MakeRequest("DELETE", "/elections/"+electionID+"/voters/"+alice.ID, nil, testutil.BasicAuth("admin"))
	req.SetPathValue("id", electionID)
	req.SetPathValue("user", alice.ID)
	testutil.AssertStatus(t, serve(svc, voting.RevokeVoter, req), http.StatusNoContent)
}

// TestConcurrentVoteSubmissions verifies that a vote retried while the first
// attempt is still in flight is stored once
func TestConcurrentVoteSubmissions(t *testing.T) {
	store, svc := testutil.SetupTestStore(t)
	electionID, _, candidateID := votingFixture(t, svc, models.DefaultRuleSet())
	testutil.CreateTestUser(t, svc, "voter")
	voting := NewVotingHandler(svc)

	req := testutil.MakeRequest("POST", "/elections/"+electionID+"/voters", nil, testutil.BasicAuth("voter"))
	req.SetPathValue("id", electionID)
	testutil.AssertStatus(t, serve(svc, voting.RegisterVoter, req), http.StatusCreated)

	numAttempts := 5
	var createdCount, replayCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			headers := testutil.BasicAuth("voter")
			headers[middleware.IdempotencyKeyHeader] = "same-ballot"
			req := testutil.MakeRequest("POST", "/candidates/"+candidateID+"/votes", nil, headers)
			req.SetPathValue("id", candidateID)
			w := serve(svc, voting.CastVote, req)

			switch w.Code {
			case http.StatusCreated:
				createdCount.Add(1)
			case http.StatusOK:
				replayCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount.Load())
	assert.Equal(t, int32(numAttempts-1), replayCount.Load())

	var votes int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM vote WHERE candidate_id = $1`, candidateID).Scan(&votes))
	assert.Equal(t, 1, votes)
}
