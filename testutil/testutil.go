// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

// TestPassword is the password of every user created by CreateTestUser
const TestPassword = "correct horse battery staple"

// TestDate is the date of vote of every election created by CreateTestElection
const TestDate = "2025-11-04"

// GetTestConfig returns a configuration backed by a private in-memory SQLite database
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DatabaseType: cliparse.DatabaseSQLite,
		StoreTimeout: 5 * time.Second,
	}
}

// SetupTestStore opens a fresh database with the full schema. It is closed
// when the test ends.
func SetupTestStore(t *testing.T) (*db.Store, *service.Service) {
	t.Helper()

	ctx := context.Background()
	store, err := db.Open(ctx, GetTestConfig())
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { store.Close() })

	require.NoError(t, db.CreateSchema(ctx, store.DB), "Failed to create schema")
	return store, service.New(store)
}

// CreateTestUser registers a user with TestPassword
func CreateTestUser(t *testing.T, svc *service.Service, name string) *models.User {
	t.Helper()

	u, err := svc.RegisterUser(context.Background(), name, name+"@example.org", TestPassword)
	require.NoError(t, err, "Failed to create test user")
	return u
}

// CreateTestAdmin registers a global admin
func CreateTestAdmin(t *testing.T, svc *service.Service, name string) *models.User {
	t.Helper()

	CreateTestUser(t, svc, name)
	require.NoError(t, svc.BootstrapGlobalAdmin(context.Background(), name))
	u, err := svc.Authenticate(context.Background(), name, TestPassword)
	require.NoError(t, err)
	return u
}

// Reload re-reads a user so that grants made since it was loaded are visible
func Reload(t *testing.T, svc *service.Service, u *models.User) *models.User {
	t.Helper()

	fresh, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err, "Failed to reload user")
	return fresh
}

// CreateTestLocation creates a location as actor
func CreateTestLocation(t *testing.T, svc *service.Service, actor *models.User, name string, parentID *string) *models.Location {
	t.Helper()

	loc, err := svc.CreateLocation(context.Background(), actor, name, parentID)
	require.NoError(t, err, "Failed to create test location")
	return loc
}

// CreateTestElection creates an election on TestDate as actor
func CreateTestElection(t *testing.T, svc *service.Service, actor *models.User, locationID, title string, rules models.RuleSet) *models.Election {
	t.Helper()

	e, err := svc.CreateElection(context.Background(), actor, models.CreateElectionRequest{
		Title:           title,
		LocationID:      locationID,
		PotentialVoters: 100,
		DateOfVote:      TestDate,
		RuleSet:         &rules,
	})
	require.NoError(t, err, "Failed to create test election")
	return e
}

// AttachTestRound appends a round with the given advancement condition
func AttachTestRound(t *testing.T, svc *service.Service, actor *models.User, electionID string, kind models.ConditionKind, threshold int) *models.ElectionRound {
	t.Helper()

	ctx := context.Background()
	cond, err := svc.CreateCondition(ctx, kind, threshold)
	require.NoError(t, err, "Failed to create test condition")

	r, err := svc.AttachRound(ctx, actor, electionID, models.AttachRoundRequest{ConditionID: cond.ID})
	require.NoError(t, err, "Failed to attach test round")
	return r
}

// AddTestCandidate registers a free-text candidate
func AddTestCandidate(t *testing.T, svc *service.Service, electionID, roundID, name string) *models.Candidate {
	t.Helper()

	c, err := svc.RegisterCandidate(context.Background(), electionID, roundID, models.RegisterCandidateRequest{DisplayName: &name})
	require.NoError(t, err, "Failed to create test candidate")
	return c
}

// CreateTestVoter registers a new user as a voter in an election
func CreateTestVoter(t *testing.T, svc *service.Service, electionID, name string) *models.User {
	t.Helper()

	u := CreateTestUser(t, svc, name)
	_, err := svc.RegisterVoter(context.Background(), u.ID, electionID)
	require.NoError(t, err, "Failed to register test voter")
	return u
}

// BasicAuth returns the Authorization header for a test user
func BasicAuth(name string) map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(name + ":" + TestPassword))
	return map[string]string{"Authorization": "Basic " + creds}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
