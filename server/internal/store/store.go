// Package store owns the Postgres connection and versioned schema, and holds
// the CRUD/query methods every other component uses to read and write
// sources, items, analyses, predictions and comparisons. The queue package
// builds on the same *sqlx.DB for the jobs table so dequeue can use a single
// atomic SQL statement.
package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the shared database handle.
type Store struct {
	DB *sqlx.DB
}

// New opens a connection pool and verifies connectivity, following the
// teacher's NewDB shape (open, ping, return error) with a context-aware ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	return &Store{DB: db}, nil
}

// Migrate runs all pending goose migrations embedded in this binary.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}
