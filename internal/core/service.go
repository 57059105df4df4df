package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hjones20/os-data/internal/census"
	"github.com/hjones20/os-data/internal/store"
	"github.com/hjones20/os-data/internal/table"
)

// Fetcher runs one census query. Satisfied by *census.Client; tests
// substitute a stub.
type Fetcher interface {
	Fetch(ctx context.Context, spec census.QuerySpec, columns table.Schema) (*table.Table, error)
}

// Service orchestrates registry lookups, API queries, and snapshot
// persistence. The store may be nil when running without a database
// (the censusfetch CLI); snapshot operations then fail cleanly.
type Service struct {
	client Fetcher
	store  *store.Store
	host   string
}

// NewService creates a Service. host is the census API root; empty falls
// back to the client's default.
func NewService(client Fetcher, st *store.Store, host string) *Service {
	return &Service{client: client, store: st, host: host}
}

// ListDatasets returns registry entries grouped by survey family.
func (s *Service) ListDatasets() map[string][]DatasetInfo {
	out := make(map[string][]DatasetInfo)
	for _, group := range Groups() {
		defs := ByGroup(group)
		infos := make([]DatasetInfo, len(defs))
		for i, def := range defs {
			infos[i] = def.Info()
		}
		out[group] = infos
	}
	return out
}

// Query fetches one dataset at the given vintage and geography. Empty
// year or geo use the dataset's defaults.
func (s *Service) Query(ctx context.Context, key, year, geo string) (*table.Table, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}

	return s.client.Fetch(ctx, def.Spec(s.host, year, geo), def.Schema())
}

// SnapshotInfo is the metadata returned after persisting a query result.
type SnapshotInfo struct {
	ID         uuid.UUID `json:"id"`
	DatasetKey string    `json:"dataset_key"`
	Year       string    `json:"year"`
	Geo        string    `json:"geo"`
	RowCount   int       `json:"row_count"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Snapshot fetches one dataset and persists the result table.
func (s *Service) Snapshot(ctx context.Context, key, year, geo string) (SnapshotInfo, error) {
	if s.store == nil {
		return SnapshotInfo{}, fmt.Errorf("snapshot store is not configured")
	}

	def, ok := Get(key)
	if !ok {
		return SnapshotInfo{}, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}

	if year == "" {
		year = def.DefaultYear
	}
	if geo == "" {
		geo = def.DefaultGeo
	}

	tbl, err := s.client.Fetch(ctx, def.Spec(s.host, year, geo), def.Schema())
	if err != nil {
		return SnapshotInfo{}, err
	}

	var payload bytes.Buffer
	if err := tbl.WriteJSON(&payload); err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	columns, err := json.Marshal(tbl.Schema())
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to encode snapshot schema: %w", err)
	}

	snap := store.Snapshot{
		ID:         uuid.New(),
		DatasetKey: key,
		Year:       year,
		Geo:        geo,
		Columns:    columns,
		RowCount:   tbl.NumRows(),
		Payload:    payload.Bytes(),
		FetchedAt:  time.Now().UTC(),
	}

	if err := s.store.Save(ctx, snap); err != nil {
		return SnapshotInfo{}, err
	}

	return SnapshotInfo{
		ID:         snap.ID,
		DatasetKey: snap.DatasetKey,
		Year:       snap.Year,
		Geo:        snap.Geo,
		RowCount:   snap.RowCount,
		FetchedAt:  snap.FetchedAt,
	}, nil
}

// Snapshots lists persisted snapshot metadata, newest first.
func (s *Service) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}
	return s.store.List(ctx)
}

// GetSnapshot returns one snapshot including its payload.
func (s *Service) GetSnapshot(ctx context.Context, id uuid.UUID) (store.Snapshot, error) {
	if s.store == nil {
		return store.Snapshot{}, fmt.Errorf("snapshot store is not configured")
	}

	snap, err := s.store.Get(ctx, id)
	if err == store.ErrNotFound {
		return store.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, err
}

// DeleteSnapshot removes one snapshot.
func (s *Service) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return fmt.Errorf("snapshot store is not configured")
	}

	err := s.store.Delete(ctx, id)
	if err == store.ErrNotFound {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return err
}
