// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/cliparse"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := cliparse.Config{
		DatabaseURL:  "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DatabaseType: cliparse.DatabaseSQLite,
		StoreTimeout: 2 * time.Second,
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, CreateSchema(context.Background(), s.DB))
	return s
}

func TestCreateSchemaIdempotent(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, CreateSchema(context.Background(), s.DB))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	insert := func(id string) error {
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO location (id, name, parent_id, created_at)
			VALUES ($1, 'Earth', NULL, $2)
		`, id, time.Now())
		return err
	}

	require.NoError(t, insert(uuid.NewString()))

	err := insert(uuid.NewString())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "root locations with the same name must collide: %v", err)
	assert.False(t, IsTransient(err))
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"conn done", sql.ErrConnDone, true},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq serialization failure", &pq.Error{Code: "40001"}, true},
		{"pq unique", &pq.Error{Code: "23505"}, false},
		{"no rows", sql.ErrNoRows, false},
		{"domain", errors.New("duplicate"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.transient, errors.Is(got, ErrStoreUnavailable))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, Classify(nil))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO location (id, name, parent_id, created_at)
			VALUES ($1, 'Mars', NULL, $2)
		`, uuid.NewString(), time.Now())
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM location`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTxTimeout(t *testing.T) {
	s := openTestStore(t)
	s.Timeout = 10 * time.Millisecond

	err := s.WithTx(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, "", (&Store{Type: cliparse.DatabaseSQLite}).ForUpdate())
	assert.Equal(t, " FOR UPDATE", (&Store{Type: cliparse.DatabasePostgres}).ForUpdate())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "file:x?_pragma=foreign_keys(0)", sqliteDSN("file:x?_pragma=foreign_keys(0)"))
}
