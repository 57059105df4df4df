// Package store persists fetched census result tables in Postgres so
// query results can be inspected later without re-hitting the API.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNotFound is returned when a snapshot ID does not exist.
var ErrNotFound = errors.New("snapshot not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Snapshot is one persisted query result. Columns holds the JSON-encoded
// column schema and Payload the JSON-encoded records; Payload is omitted
// from listings.
type Snapshot struct {
	ID         uuid.UUID       `json:"id"`
	DatasetKey string          `json:"dataset_key"`
	Year       string          `json:"year"`
	Geo        string          `json:"geo"`
	Columns    json.RawMessage `json:"columns"`
	RowCount   int             `json:"row_count"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Store provides snapshot persistence.
type Store struct {
	db DBTX
}

// New creates a Store backed by the given database handle.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS census_snapshots (
	id          UUID PRIMARY KEY,
	dataset_key TEXT NOT NULL,
	year        TEXT NOT NULL,
	geo         TEXT NOT NULL,
	columns     JSONB NOT NULL,
	row_count   INTEGER NOT NULL,
	payload     JSONB NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS census_snapshots_dataset_idx
	ON census_snapshots (dataset_key, fetched_at DESC);
`

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return nil
}

// Save inserts a snapshot. The ID and FetchedAt fields must be set by the
// caller.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO census_snapshots (id, dataset_key, year, geo, columns, row_count, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pgtype.UUID{Bytes: snap.ID, Valid: true},
		snap.DatasetKey,
		snap.Year,
		snap.Geo,
		snap.Columns,
		snap.RowCount,
		snap.Payload,
		pgtype.Timestamptz{Time: snap.FetchedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// List returns snapshot metadata (no payload), newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, dataset_key, year, geo, columns, row_count, fetched_at
		FROM census_snapshots
		ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return out, nil
}

// Get returns one snapshot including its payload.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, dataset_key, year, geo, columns, row_count, fetched_at, payload
		FROM census_snapshots
		WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})

	snap, err := scanSnapshot(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Delete removes a snapshot by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM census_snapshots WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanSnapshot reads one snapshot row. Column order must match the SELECT
// statements above, with payload last when requested.
func scanSnapshot(row pgx.Row, withPayload bool) (Snapshot, error) {
	var (
		snap      Snapshot
		id        pgtype.UUID
		fetchedAt pgtype.Timestamptz
	)

	dest := []any{&id, &snap.DatasetKey, &snap.Year, &snap.Geo, &snap.Columns, &snap.RowCount, &fetchedAt}
	if withPayload {
		dest = append(dest, &snap.Payload)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.ID = uuid.UUID(id.Bytes)
	snap.FetchedAt = fetchedAt.Time
	return snap, nil
}
