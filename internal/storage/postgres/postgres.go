// Package postgres is the PostgreSQL storage backend: a single key-value table
// upserted on every write.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/pkg/database"
)

// DBTX is the subset of pgxpool.Pool used by the backend.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS shopstate_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	getSQL    = `SELECT value FROM shopstate_kv WHERE key = $1`
	upsertSQL = `INSERT INTO shopstate_kv (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteSQL = `DELETE FROM shopstate_kv WHERE key = $1`
)

// Backend implements storage.Backend on PostgreSQL.
type Backend struct {
	db DBTX
}

// New creates a Postgres-backed store.
func New(db DBTX) *Backend {
	return &Backend{db: db}
}

// EnsureSchema creates the key-value table when missing.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create shopstate_kv: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) (value string, err error) {
	ctx, end := database.TraceOp(ctx, "postgresql", "SELECT", getSQL)
	defer func() { end(err) }()

	err = b.db.QueryRow(ctx, getSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("select kv: %w", err)
	}
	return value, nil
}

// Set upserts value under key.
func (b *Backend) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := database.TraceOp(ctx, "postgresql", "UPSERT", upsertSQL)
	defer func() { end(err) }()

	if _, err = b.db.Exec(ctx, upsertSQL, key, value); err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}

// Delete removes key.
func (b *Backend) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceOp(ctx, "postgresql", "DELETE", deleteSQL)
	defer func() { end(err) }()

	if _, err = b.db.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("delete kv: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}
