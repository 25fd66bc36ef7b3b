package store

import (
	"context"
	"errors"

	"pullwatch.app/pullwatch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// RecordStore defines the contract for entity record access.
// The ingestion service is the sole writer; the change-capture
// processor and the staleness scanner only read.
type RecordStore interface {
	Get(ctx context.Context, id string) (*model.Record, error)
	Put(ctx context.Context, record *model.Record) error

	// ScanStale returns all records of the given entity type whose action
	// matches and whose created_timestamp is at or before cutoff. Full
	// predicate scan; acceptable at this table's size.
	ScanStale(ctx context.Context, entityType model.EntityType, action string, cutoff int64) ([]model.Record, error)
}
