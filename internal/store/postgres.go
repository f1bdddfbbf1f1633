package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobscreen/internal/domain"
)

// PostgresStore is the database-backed RecordStore, for installs that already
// run Postgres and prefer it over a directory of files.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ RecordStore = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS postings (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			organization TEXT NOT NULL,
			location     TEXT NOT NULL,
			url          TEXT NOT NULL,
			body         TEXT NOT NULL,
			harvested_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure postings table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) Contains(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM postings WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

// Save inserts the record; an existing ID is left as-is (records are
// immutable, so DO NOTHING rather than upsert).
func (s *PostgresStore) Save(ctx context.Context, rec domain.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record has empty id")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO postings (id, title, organization, location, url, body, harvested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Title, rec.Organization, rec.Location, rec.SourceURL, rec.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns records in harvest order (insertion time, ID as tiebreak),
// the closest recoverable approximation of the order rows were discovered.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, organization, location, url, body FROM postings ORDER BY harvested_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Organization, &rec.Location, &rec.SourceURL, &rec.Body); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
