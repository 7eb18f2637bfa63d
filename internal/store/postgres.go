package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of pgxpool.Pool the postgres store depends on.
// Narrowing the surface keeps the store mockable with pgxmock.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists session state in a session_state(key, value) table.
type PostgresStore struct {
	db  Database
	log *slog.Logger
}

// NewDatabase initializes a pgx connection pool against the configured
// PostgreSQL instance and verifies connectivity with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStore creates a new instance of PostgresStore with the provided
// Database. It returns a pointer to the newly created PostgresStore.
func NewPostgresStore(db Database, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Get retrieves the value stored under key. A missing key is reported as
// not found, never as an error.
func (ps *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM session_state
		WHERE key = $1;
	`

	var value string
	err := ps.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query session value: %w", err)
	}

	ps.log.DebugContext(ctx, "Loaded session value", "key", key)

	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (ps *PostgresStore) Set(ctx context.Context, key string, value string) error {
	query := `
		INSERT INTO session_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now();
	`

	_, err := ps.db.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert session value: %w", err)
	}

	return nil
}
