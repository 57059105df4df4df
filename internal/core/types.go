// Package core provides the business logic for census data queries:
// a registry of known datasets, the service that turns a dataset key into
// an API call, and user-facing error mapping. This package has no HTTP
// dependencies and can be used by any frontend.
package core

import (
	"github.com/hjones20/os-data/internal/census"
	"github.com/hjones20/os-data/internal/table"
)

// VariableSpec maps one census variable code to an output column.
//
// Variable codes (e.g. "P013001") are opaque identifiers; the Column name
// is the human-readable label from the dataset's data dictionary
// ("median_age"). This mapping is exactly the reference-table knowledge
// the API itself does not provide.
type VariableSpec struct {
	Code   string     `json:"code"`
	Column string     `json:"column"`
	Type   table.Type `json:"type"`
}

// DatasetDefinition contains everything needed to query one dataset.
type DatasetDefinition struct {
	Key         string // Unique identifier: "dec_sf1_profile"
	Group       string // Survey family: "Decennial", "ACS"
	Label       string // Display name: "Demographic Profile"
	Path        string // Dataset path segment: "dec/sf1"
	DefaultYear string // Vintage used when the caller supplies none
	GeoKey      string // Geography predicate key, normally "for"
	DefaultGeo  string // Geography predicate value: "state:*"
	GeoColumn   string // Name of the trailing geography-code column
	Variables   []VariableSpec
}

// Spec builds the QuerySpec for this dataset at the given vintage and
// geography. Empty year or geo fall back to the definition's defaults.
func (d DatasetDefinition) Spec(host, year, geo string) census.QuerySpec {
	if year == "" {
		year = d.DefaultYear
	}
	if geo == "" {
		geo = d.DefaultGeo
	}

	codes := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		codes[i] = v.Code
	}

	return census.QuerySpec{
		Host:      host,
		Year:      year,
		Dataset:   d.Path,
		Variables: codes,
		Geo:       census.GeoFilter{Key: d.GeoKey, Value: geo},
	}
}

// Schema returns the output column schema: one column per variable plus
// the trailing geography-code column, which is always text.
func (d DatasetDefinition) Schema() table.Schema {
	schema := make(table.Schema, 0, len(d.Variables)+1)
	for _, v := range d.Variables {
		schema = append(schema, table.Column{Name: v.Column, Type: v.Type})
	}
	return append(schema, table.Column{Name: d.GeoColumn, Type: table.TypeText})
}

// DatasetInfo is the registry listing entry returned by the API.
type DatasetInfo struct {
	Key         string         `json:"key"`
	Group       string         `json:"group"`
	Label       string         `json:"label"`
	Path        string         `json:"path"`
	DefaultYear string         `json:"default_year"`
	DefaultGeo  string         `json:"default_geo"`
	Variables   []VariableSpec `json:"variables"`
}

// Info returns the definition's listing entry.
func (d DatasetDefinition) Info() DatasetInfo {
	return DatasetInfo{
		Key:         d.Key,
		Group:       d.Group,
		Label:       d.Label,
		Path:        d.Path,
		DefaultYear: d.DefaultYear,
		DefaultGeo:  d.DefaultGeo,
		Variables:   d.Variables,
	}
}
