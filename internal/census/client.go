// Package census implements a minimal client for the Census Bureau's
// tabular statistics API (https://api.census.gov/data).
//
// The API answers a GET against {host}/{year}/{dataset} with a JSON array
// of arrays of strings. Row 0 echoes the requested variable codes as
// header labels; every remaining row holds one geographic unit, with all
// values string-typed regardless of logical type. Fetch normalizes that
// payload into a typed table using a caller-supplied column schema; the
// echoed header labels are discarded, not validated.
//
// Each Fetch is a single stateless request/transform: no retries, no
// caching, no pagination. The only shared state is the underlying
// http.Client, so a Client is safe for concurrent use.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hjones20/os-data/internal/table"
)

// DefaultHost is the public Census data API root.
const DefaultHost = "https://api.census.gov/data"

// maxErrorBodyBytes limits how much of a non-2xx response body is read.
const maxErrorBodyBytes = 4 << 10

// GeoFilter is a geography predicate, e.g. Key "for", Value "state:*".
type GeoFilter struct {
	Key   string
	Value string
}

// QuerySpec is the full parameter set of one API call. It is constructed
// fresh per call and never mutated by the client.
//
// Variables is the ordered list of variable codes to retrieve; order is
// significant and determines response column order. The first variable is
// conventionally a human-readable name field (NAME). Codes are opaque to
// this package; mapping them to human labels is data-dictionary knowledge
// that lives in the dataset registry, not here.
type QuerySpec struct {
	Host      string
	Year      string
	Dataset   string
	Variables []string
	Geo       GeoFilter
}

// Validate checks the spec against a column schema without touching the
// network. The schema must have one column per variable plus a trailing
// geography-code column.
func (s QuerySpec) Validate(columns table.Schema) error {
	if len(s.Variables) == 0 {
		return &SpecMismatch{Variables: 0, Columns: len(columns)}
	}
	if len(columns) != len(s.Variables)+1 {
		return &SpecMismatch{Variables: len(s.Variables), Columns: len(columns)}
	}
	return nil
}

// url builds the request URL: {host}/{year}/{dataset}?get=v1,v2&for=state:*
func (s QuerySpec) url() (string, error) {
	host := s.Host
	if host == "" {
		host = DefaultHost
	}

	u, err := url.Parse(strings.TrimRight(host, "/") + "/" + s.Year + "/" + s.Dataset)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("get", strings.Join(s.Variables, ","))
	if s.Geo.Key != "" {
		q.Set(s.Geo.Key, s.Geo.Value)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Client issues queries against the census data API.
type Client struct {
	hc *http.Client
}

// NewClient returns a Client whose requests time out after the given
// duration. A zero timeout disables the client-side deadline; callers can
// still bound individual calls through the context.
func NewClient(timeout time.Duration) *Client {
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP returns a Client using the provided http.Client.
func NewClientWithHTTP(hc *http.Client) *Client {
	return &Client{hc: hc}
}

// Fetch runs one query and normalizes the response into a typed table.
//
// columns names and types the output columns in response order: one per
// variable plus the trailing geography-code column. Columns declared
// TypeNumeric are converted from their string form to float64.
//
// Errors: *SpecMismatch (schema/variable count disagreement, detected
// before any network I/O), *NetworkError (transport failure, timeout, or
// non-2xx status), *MalformedResponse (body is not a 2D string array, or a
// row's width disagrees with the schema), *TypeConversionError (non-numeric
// value in a numeric column). No partial table is ever returned.
func (c *Client) Fetch(ctx context.Context, spec QuerySpec, columns table.Schema) (*table.Table, error) {
	if err := spec.Validate(columns); err != nil {
		return nil, err
	}

	reqURL, err := spec.url()
	if err != nil {
		return nil, &NetworkError{URL: spec.Host, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, maxErrorBodyBytes)
		return nil, &NetworkError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &MalformedResponse{Reason: "body is not a JSON array of string arrays", Row: -1}
	}
	if len(rows) == 0 {
		return nil, &MalformedResponse{Reason: "response contains no header row", Row: -1}
	}

	// Row 0 echoes the variable codes; the caller names columns explicitly,
	// so the header is dropped without validation.
	tbl, err := table.Build(columns, rows[1:])
	if err != nil {
		var conv *table.ConversionError
		if errors.As(err, &conv) {
			return nil, &TypeConversionError{Row: conv.Row + 1, Column: conv.Column, Value: conv.Value}
		}
		var width *table.WidthError
		if errors.As(err, &width) {
			return nil, &MalformedResponse{
				Reason: err.Error(),
				Row:    width.Row + 1,
			}
		}
		return nil, err
	}

	return tbl, nil
}
