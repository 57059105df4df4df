package census

import "fmt"

// NetworkError indicates the request never produced a usable response:
// the host was unreachable, the request timed out, or the API returned a
// non-2xx status. StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("census request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("census request to %s returned status %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponse indicates the response body was not the expected 2D
// string array, or a data row did not match the requested column count.
// Row is the zero-based row index within the response body, or -1 when the
// problem is not row-specific.
type MalformedResponse struct {
	Reason string
	Row    int
}

func (e *MalformedResponse) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("malformed census response at row %d: %s", e.Row, e.Reason)
	}
	return "malformed census response: " + e.Reason
}

// TypeConversionError indicates a cell in a numeric column did not parse
// as a number. Row is the zero-based row index within the response body
// (row 0 is the header, so data rows start at 1).
type TypeConversionError struct {
	Row    int
	Column string
	Value  string
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("census response row %d: value %q in column %q is not numeric",
		e.Row, e.Value, e.Column)
}

// SpecMismatch indicates the caller-supplied column schema cannot describe
// the requested variables: the column count must be the variable count plus
// one for the trailing geography column.
type SpecMismatch struct {
	Variables int
	Columns   int
}

func (e *SpecMismatch) Error() string {
	if e.Variables == 0 {
		return "query spec has no variables"
	}
	return fmt.Sprintf("schema has %d columns, want %d (%d variables + geography)",
		e.Columns, e.Variables+1, e.Variables)
}
