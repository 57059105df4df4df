package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hjones20/os-data/internal/core"
	"github.com/hjones20/os-data/internal/table"
)

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleListDatasets returns all registered datasets organized by survey
// family.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.ListDatasets())
}

// queryResponse is the envelope for live query results. Records carries
// the table's own JSON form so column order is preserved.
type queryResponse struct {
	Dataset  string          `json:"dataset"`
	Year     string          `json:"year"`
	Geo      string          `json:"geo"`
	Columns  table.Schema    `json:"columns"`
	RowCount int             `json:"row_count"`
	Records  json.RawMessage `json:"records"`
}

// resolveQueryParams reads the dataset key from the URL and the year/geo
// query parameters, applying the dataset's defaults.
func (s *Server) resolveQueryParams(r *http.Request) (core.DatasetDefinition, string, string, error) {
	key := chi.URLParam(r, "datasetKey")

	def, ok := core.Get(key)
	if !ok {
		return core.DatasetDefinition{}, "", "", fmt.Errorf("%w: %s", core.ErrUnknownDataset, key)
	}

	year := r.URL.Query().Get("year")
	if year == "" {
		year = def.DefaultYear
	}
	geo := r.URL.Query().Get("for")
	if geo == "" {
		geo = def.DefaultGeo
	}

	return def, year, geo, nil
}

// handleQuery runs one live query and returns the typed records as JSON.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	def, year, geo, err := s.resolveQueryParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	tbl, err := s.service.Query(r.Context(), def.Key, year, geo)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var records bytes.Buffer
	if err := tbl.WriteJSON(&records); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, queryResponse{
		Dataset:  def.Key,
		Year:     year,
		Geo:      geo,
		Columns:  tbl.Schema(),
		RowCount: tbl.NumRows(),
		Records:  records.Bytes(),
	})
}

// handleExport runs one live query and streams the result in the
// requested format: csv (default), json, or parquet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	def, year, geo, err := s.resolveQueryParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	switch format {
	case "csv", "json", "parquet":
	default:
		writeBadRequest(w, fmt.Sprintf("unsupported format %q, want csv, json, or parquet", format))
		return
	}

	tbl, err := s.service.Query(r.Context(), def.Key, year, geo)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", def.Key, year, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = tbl.WriteCSV(w)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = tbl.WriteJSON(w)
	case "parquet":
		w.Header().Set("Content-Type", "application/vnd.apache.parquet")
		err = tbl.WriteParquet(w)
	}

	if err != nil {
		// Headers are already sent; log and drop the connection.
		s.logExportFailure(r, def.Key, format, err)
	}
}

// handleSnapshotCreate runs one live query and persists the result.
func (s *Server) handleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	def, year, geo, err := s.resolveQueryParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	info, err := s.service.Snapshot(r.Context(), def.Key, year, geo)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(info)
}

// handleSnapshotList returns snapshot metadata, newest first.
func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.service.Snapshots(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, snaps)
}

// handleSnapshotGet returns one snapshot including its payload.
func (s *Server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid snapshot ID")
		return
	}

	snap, err := s.service.GetSnapshot(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, snap)
}

// handleSnapshotDelete removes one snapshot.
func (s *Server) handleSnapshotDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid snapshot ID")
		return
	}

	if err := s.service.DeleteSnapshot(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
