package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pullwatch.app/pullwatch/internal/model"
)

type recordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) RecordStore {
	return &recordStore{pool: pool}
}

func (s *recordStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entity_type, action, repository, sender, number, title, url,
		       assignee, organization, diff_url,
		       created_at, created_timestamp, last_updated_at
		FROM records
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Put writes the record unconditionally. Concurrent writers for the
// same id resolve last-writer-wins; there is no optimistic locking.
func (s *recordStore) Put(ctx context.Context, record *model.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO records (
			id, entity_type, action, repository, sender, number, title, url,
			assignee, organization, diff_url,
			created_at, created_timestamp, last_updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			entity_type       = EXCLUDED.entity_type,
			action            = EXCLUDED.action,
			repository        = EXCLUDED.repository,
			sender            = EXCLUDED.sender,
			number            = EXCLUDED.number,
			title             = EXCLUDED.title,
			url               = EXCLUDED.url,
			assignee          = EXCLUDED.assignee,
			organization      = EXCLUDED.organization,
			diff_url          = EXCLUDED.diff_url,
			created_at        = EXCLUDED.created_at,
			created_timestamp = EXCLUDED.created_timestamp,
			last_updated_at   = EXCLUDED.last_updated_at
	`,
		record.ID,
		string(record.EntityType),
		record.Action,
		record.Repository,
		record.Sender,
		record.Number,
		record.Title,
		record.URL,
		record.Assignee,
		record.Organization,
		record.DiffURL,
		record.CreatedAt,
		record.CreatedTimestamp,
		record.LastUpdatedAt,
	)
	return err
}

func (s *recordStore) ScanStale(ctx context.Context, entityType model.EntityType, action string, cutoff int64) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_type, action, repository, sender, number, title, url,
		       assignee, organization, diff_url,
		       created_at, created_timestamp, last_updated_at
		FROM records
		WHERE entity_type = $1
		  AND action = $2
		  AND created_timestamp <= $3
	`, string(entityType), action, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*model.Record, error) {
	var rec model.Record
	var entityType string
	if err := row.Scan(
		&rec.ID,
		&entityType,
		&rec.Action,
		&rec.Repository,
		&rec.Sender,
		&rec.Number,
		&rec.Title,
		&rec.URL,
		&rec.Assignee,
		&rec.Organization,
		&rec.DiffURL,
		&rec.CreatedAt,
		&rec.CreatedTimestamp,
		&rec.LastUpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.EntityType = model.EntityType(entityType)
	return &rec, nil
}
