// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-elect/cliparse"
)

// Store is the explicitly constructed handle on the relational store.
// It is opened once at process start and closed at shutdown.
type Store struct {
	DB      *sql.DB
	Type    string
	Timeout time.Duration
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg cliparse.Config) (*Store, error) {
	dsn := cfg.DatabaseURL
	driver := "postgres"
	if cfg.DatabaseType == cliparse.DatabaseSQLite {
		driver = "sqlite"
		dsn = sqliteDSN(dsn)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := New(conn, cfg.DatabaseType, cfg.StoreTimeout)

	pingCtx, cancel := s.WithTimeout(ctx)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, Classify(fmt.Errorf("database ping failed: %w", err))
	}

	slog.Info("database connected", "type", cfg.DatabaseType)
	return s, nil
}

// New wraps an already opened connection pool.
func New(conn *sql.DB, dbType string, timeout time.Duration) *Store {
	if dbType == cliparse.DatabaseSQLite {
		// SQLite has a single writer; one connection serializes every transaction
		conn.SetMaxOpenConns(1)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{DB: conn, Type: dbType, Timeout: timeout}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// WithTimeout bounds ctx by the store operation timeout.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.Timeout)
}

// WithTx runs fn inside a transaction. Any error returned by fn rolls the
// transaction back; infrastructure errors are wrapped with ErrStoreUnavailable.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return Classify(err)
	}

	if err := tx.Commit(); err != nil {
		return Classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// ForUpdate returns the row-locking suffix for SELECT statements.
// SQLite transactions are already serialized by the single connection.
func (s *Store) ForUpdate() string {
	if s.Type == cliparse.DatabasePostgres {
		return " FOR UPDATE"
	}
	return ""
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
