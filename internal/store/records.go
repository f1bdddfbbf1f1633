// Package store persists harvested postings. The file backend is the
// default; a Postgres backend can be selected through configuration, and an
// optional Redis cache fronts the dedup check during harvesting.
package store

import (
	"context"

	"jobscreen/internal/domain"
)

// RecordStore is the durable home of harvested postings. Records are
// append-only: Save of an ID that already exists is a no-op.
type RecordStore interface {
	Contains(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, rec domain.Record) error
	// List returns every stored record, ordered by ID so that repeated
	// runs walk the backlog in a stable order.
	List(ctx context.Context) ([]domain.Record, error)
}
