package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hjones20/os-data/internal/census"
	"github.com/hjones20/os-data/internal/config"
	"github.com/hjones20/os-data/internal/core"
	"github.com/hjones20/os-data/internal/table"
)

// newTestRouter wires a full server against a fake census upstream and
// registers one dataset. Snapshot routes run without a store.
func newTestRouter(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	core.Clear()
	t.Cleanup(core.Clear)
	core.Register(core.DatasetDefinition{
		Key:         "dec_sf1_profile",
		Group:       "Decennial",
		Label:       "Demographic Profile",
		Path:        "dec/sf1",
		DefaultYear: "2010",
		GeoKey:      "for",
		DefaultGeo:  "state:*",
		GeoColumn:   "state",
		Variables: []core.VariableSpec{
			{Code: "NAME", Column: "name", Type: table.TypeText},
			{Code: "P013001", Column: "median_age", Type: table.TypeNumeric},
			{Code: "P037001", Column: "avg_family_size", Type: table.TypeNumeric},
		},
	})

	service := core.NewService(census.NewClient(5*time.Second), nil, srv.URL)
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
	}

	return NewServer(service, cfg).Router()
}

func profileUpstream(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode([][]string{
		{"NAME", "P013001", "P037001", "state"},
		{"Alabama", "37.9", "3.02", "01"},
		{"Alaska", "33.8", "3.21", "02"},
	})
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestHandleListDatasets(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/datasets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var groups map[string][]core.DatasetInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups["Decennial"]) != 1 || groups["Decennial"][0].Key != "dec_sf1_profile" {
		t.Errorf("groups = %+v, want dec_sf1_profile under Decennial", groups)
	}
}

func TestHandleQuery(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/query/dec_sf1_profile")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Dataset  string           `json:"dataset"`
		Year     string           `json:"year"`
		Geo      string           `json:"geo"`
		RowCount int              `json:"row_count"`
		Records  []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Dataset != "dec_sf1_profile" || resp.Year != "2010" || resp.Geo != "state:*" {
		t.Errorf("envelope = %+v, want dataset defaults", resp)
	}
	if resp.RowCount != 2 || len(resp.Records) != 2 {
		t.Fatalf("row_count = %d with %d records, want 2", resp.RowCount, len(resp.Records))
	}
	if resp.Records[0]["median_age"] != 37.9 {
		t.Errorf("median_age = %v, want 37.9", resp.Records[0]["median_age"])
	}
	if resp.Records[1]["state"] != "02" {
		t.Errorf("state = %v, want \"02\"", resp.Records[1]["state"])
	}
}

func TestHandleQuery_Overrides(t *testing.T) {
	var gotPath, gotFor string
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFor = r.URL.Query().Get("for")
		profileUpstream(w, r)
	})

	rec := do(t, router, http.MethodGet, "/api/query/dec_sf1_profile?year=2000&for=county:*")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/2000/dec/sf1" {
		t.Errorf("upstream path = %q, want /2000/dec/sf1", gotPath)
	}
	if gotFor != "county:*" {
		t.Errorf("upstream for = %q, want county:*", gotFor)
	}
}

func TestHandleQuery_UnknownDataset(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/query/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "DS001" {
		t.Errorf("code = %q, want DS001", resp.Code)
	}
}

func TestHandleQuery_UpstreamFailure(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rec := do(t, router, http.MethodGet, "/api/query/dec_sf1_profile")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "NET002" {
		t.Errorf("code = %q, want NET002", resp.Code)
	}
}

func TestHandleExport_CSV(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/export/dec_sf1_profile")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "dec_sf1_profile_2010.csv") {
		t.Errorf("Content-Disposition = %q, want dataset filename", cd)
	}

	want := "name,median_age,avg_family_size,state\n" +
		"Alabama,37.9,3.02,01\n" +
		"Alaska,33.8,3.21,02\n"
	if rec.Body.String() != want {
		t.Errorf("body =\n%s\nwant\n%s", rec.Body.String(), want)
	}
}

func TestHandleExport_Parquet(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/export/dec_sf1_profile?format=parquet")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "PAR1") {
		t.Error("body missing PAR1 magic")
	}
}

func TestHandleExport_BadFormat(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/export/dec_sf1_profile?format=xlsx")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "REQ001" {
		t.Errorf("code = %q, want REQ001", resp.Code)
	}
}

func TestHandleSnapshotGet_BadID(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/api/snapshots/not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, profileUpstream)

	rec := do(t, router, http.MethodGet, "/healthz")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") {
		t.Error("first request should be allowed")
	}
	if !rl.allow("1.2.3.4") {
		t.Error("second request should be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IPs should not be affected")
	}
}
