package census

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hjones20/os-data/internal/table"
)

// profileSpec is the canonical example query: 2010 SF1 median age and
// average family size for every state.
func profileSpec(host string) QuerySpec {
	return QuerySpec{
		Host:      host,
		Year:      "2010",
		Dataset:   "dec/sf1",
		Variables: []string{"NAME", "P013001", "P037001"},
		Geo:       GeoFilter{Key: "for", Value: "state:*"},
	}
}

func profileColumns() table.Schema {
	return table.Schema{
		{Name: "name", Type: table.TypeText},
		{Name: "median_age", Type: table.TypeNumeric},
		{Name: "avg_family_size", Type: table.TypeNumeric},
		{Name: "state", Type: table.TypeText},
	}
}

// serveRows returns a test server responding to every request with the
// given rows as JSON.
func serveRows(t *testing.T, rows [][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	var gotPath, gotGet, gotFor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotGet = r.URL.Query().Get("get")
		gotFor = r.URL.Query().Get("for")

		json.NewEncoder(w).Encode([][]string{
			{"NAME", "P013001", "P037001", "state"},
			{"Alabama", "37.9", "3.02", "01"},
			{"Alaska", "33.8", "3.21", "02"},
		})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	tbl, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Request shape
	if gotPath != "/2010/dec/sf1" {
		t.Errorf("request path = %q, want %q", gotPath, "/2010/dec/sf1")
	}
	if gotGet != "NAME,P013001,P037001" {
		t.Errorf("get param = %q, want %q", gotGet, "NAME,P013001,P037001")
	}
	if gotFor != "state:*" {
		t.Errorf("for param = %q, want %q", gotFor, "state:*")
	}

	// Header dropped, rows typed
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}
	rec := tbl.Record(0)
	if rec["name"] != "Alabama" {
		t.Errorf("name = %v, want Alabama", rec["name"])
	}
	if rec["median_age"] != 37.9 {
		t.Errorf("median_age = %v (%T), want 37.9 (float64)", rec["median_age"], rec["median_age"])
	}
	if rec["avg_family_size"] != 3.02 {
		t.Errorf("avg_family_size = %v, want 3.02", rec["avg_family_size"])
	}
	if rec["state"] != "01" {
		t.Errorf("state = %v (%T), want \"01\" (string)", rec["state"], rec["state"])
	}
}

func TestFetch_HeaderLabelsNotValidated(t *testing.T) {
	// The API's header echo is dropped unseen; the caller names columns.
	srv := serveRows(t, [][]string{
		{"whatever", "the", "api", "says"},
		{"Alabama", "37.9", "3.02", "01"},
	})

	client := NewClient(5 * time.Second)
	tbl, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("NumRows() = %d, want 1", tbl.NumRows())
	}
	if got := tbl.Schema().Names()[1]; got != "median_age" {
		t.Errorf("column 1 = %q, want caller-supplied %q", got, "median_age")
	}
}

func TestFetch_SpecMismatch(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)

	tests := []struct {
		name    string
		spec    QuerySpec
		columns table.Schema
	}{
		{
			name:    "too few columns",
			spec:    profileSpec(srv.URL),
			columns: profileColumns()[:3],
		},
		{
			name:    "too many columns",
			spec:    profileSpec(srv.URL),
			columns: append(profileColumns(), table.Column{Name: "extra", Type: table.TypeText}),
		},
		{
			name: "no variables",
			spec: QuerySpec{
				Host:    srv.URL,
				Year:    "2010",
				Dataset: "dec/sf1",
				Geo:     GeoFilter{Key: "for", Value: "state:*"},
			},
			columns: profileColumns(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Fetch(context.Background(), tt.spec, tt.columns)

			var mismatch *SpecMismatch
			if !errors.As(err, &mismatch) {
				t.Fatalf("Fetch() error = %v, want *SpecMismatch", err)
			}
		})
	}

	// Validation happens before any network call.
	if n := requests.Load(); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such dataset", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", netErr.StatusCode, http.StatusNotFound)
	}
}

func TestFetch_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want *NetworkError", err)
	}
	if netErr.Err == nil {
		t.Error("NetworkError.Err should carry the transport error")
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(50 * time.Millisecond)
	_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want *NetworkError", err)
	}
}

func TestFetch_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"json object", `{"error": "not a table"}`},
		{"mixed types", `[["NAME","P013001"],["Alabama",37.9]]`},
		{"not json", `<html>census</html>`},
		{"empty array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(5 * time.Second)
			_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

			var malformed *MalformedResponse
			if !errors.As(err, &malformed) {
				t.Fatalf("Fetch() error = %v, want *MalformedResponse", err)
			}
		})
	}
}

func TestFetch_RaggedRow(t *testing.T) {
	srv := serveRows(t, [][]string{
		{"NAME", "P013001", "P037001", "state"},
		{"Alabama", "37.9", "3.02", "01"},
		{"Alaska", "33.8", "3.21"}, // missing geography cell
	})

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

	var malformed *MalformedResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("Fetch() error = %v, want *MalformedResponse", err)
	}
	if malformed.Row != 2 {
		t.Errorf("Row = %d, want 2 (response row, header included)", malformed.Row)
	}
}

func TestFetch_TypeConversionError(t *testing.T) {
	srv := serveRows(t, [][]string{
		{"NAME", "P013001", "P037001", "state"},
		{"Alabama", "37.9", "3.02", "01"},
		{"Puerto Rico", "N/A", "3.17", "72"},
	})

	client := NewClient(5 * time.Second)
	_, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())

	var conv *TypeConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("Fetch() error = %v, want *TypeConversionError", err)
	}
	if conv.Row != 2 {
		t.Errorf("Row = %d, want 2 (response row, header included)", conv.Row)
	}
	if conv.Column != "median_age" {
		t.Errorf("Column = %q, want %q", conv.Column, "median_age")
	}
	if conv.Value != "N/A" {
		t.Errorf("Value = %q, want %q", conv.Value, "N/A")
	}
}

func TestFetch_Idempotent(t *testing.T) {
	srv := serveRows(t, [][]string{
		{"NAME", "P013001", "P037001", "state"},
		{"Alabama", "37.9", "3.02", "01"},
		{"Alaska", "33.8", "3.21", "02"},
	})

	client := NewClient(5 * time.Second)

	first, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	second, err := client.Fetch(context.Background(), profileSpec(srv.URL), profileColumns())
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}

	if !first.Equal(second) {
		t.Error("identical queries against an unchanged dataset should yield equal tables")
	}
}

func TestQuerySpec_URL(t *testing.T) {
	tests := []struct {
		name string
		spec QuerySpec
		want string
	}{
		{
			name: "full spec",
			spec: profileSpec("https://api.census.gov/data"),
			want: "https://api.census.gov/data/2010/dec/sf1?for=state%3A%2A&get=NAME%2CP013001%2CP037001",
		},
		{
			name: "trailing slash on host",
			spec: QuerySpec{
				Host:      "https://api.census.gov/data/",
				Year:      "2021",
				Dataset:   "acs/acs5",
				Variables: []string{"NAME", "B01003_001E"},
				Geo:       GeoFilter{Key: "for", Value: "county:*"},
			},
			want: "https://api.census.gov/data/2021/acs/acs5?for=county%3A%2A&get=NAME%2CB01003_001E",
		},
		{
			name: "empty host uses default",
			spec: QuerySpec{
				Year:      "2010",
				Dataset:   "dec/sf1",
				Variables: []string{"NAME"},
			},
			want: DefaultHost + "/2010/dec/sf1?get=NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.url()
			if err != nil {
				t.Fatalf("url() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("url() = %q, want %q", got, tt.want)
			}
		})
	}
}
