package postgres

import (
	"context"
	"fmt"

	_ "embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store keeps notified urls in the seen_postings table. The pool is owned
// by the caller.
type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the seen_postings table when it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT url FROM seen_postings")
	if err != nil {
		return nil, fmt.Errorf("query seen postings: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect seen postings: %w", err)
	}
	return urls, nil
}

func (s *Store) Append(ctx context.Context, url string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO seen_postings (url, seen_at)
         VALUES ($1, now())
         ON CONFLICT (url) DO NOTHING`,
		url,
	)
	if err != nil {
		return fmt.Errorf("insert seen posting: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
