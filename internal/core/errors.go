package core

// errors.go maps technical errors to user-friendly messages with stable
// codes for support reference.
//
// Census API errors carry types, so they are matched with errors.As:
//
//	NET001 - Host unreachable or request timed out
//	NET002 - API returned a non-success status
//	API001 - Response body was not the expected 2D string array
//	VAL001 - A numeric column contained a non-numeric value
//	VAL002 - Column schema does not match the requested variables
//	DS001  - Dataset key is not registered
//
// Database and cancellation errors have no types of their own and are
// matched case-insensitively on message substrings:
//
//	DB001  - Unable to connect to the snapshot database
//	DB002  - Snapshot database operation timed out
//	UPL001 - Request was cancelled
//
// Anything else falls through to ERR000; check the logs for the original
// technical error.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hjones20/os-data/internal/census"
)

// ErrUnknownDataset is returned when a dataset key is not registered.
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrSnapshotNotFound is returned when a snapshot ID does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a message substring to match and its user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback for errors without their own type.
// Matched case-insensitively with strings.Contains; first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the snapshot database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The snapshot database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a narrower geography or try again later",
			Code:    "DB002",
		},
	},
}

// MapError converts a technical error into a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{Message: "OK", Code: ""}
	}

	var netErr *census.NetworkError
	if errors.As(err, &netErr) {
		if netErr.StatusCode != 0 {
			return UserMessage{
				Message: fmt.Sprintf("The census API returned status %d", netErr.StatusCode),
				Action:  "Check the dataset vintage and geography, then try again",
				Code:    "NET002",
			}
		}
		return UserMessage{
			Message: "The census API could not be reached",
			Action:  "Check connectivity and try again in a few moments",
			Code:    "NET001",
		}
	}

	var malformed *census.MalformedResponse
	if errors.As(err, &malformed) {
		return UserMessage{
			Message: "The census API returned an unexpected response shape",
			Action:  "Verify the dataset definition matches the API's current layout",
			Code:    "API001",
		}
	}

	var conv *census.TypeConversionError
	if errors.As(err, &conv) {
		return UserMessage{
			Message: fmt.Sprintf("Column %q contains the non-numeric value %q", conv.Column, conv.Value),
			Action:  "Declare the column as text or exclude rows with sentinel values",
			Code:    "VAL001",
		}
	}

	var mismatch *census.SpecMismatch
	if errors.As(err, &mismatch) {
		return UserMessage{
			Message: "The column schema does not match the requested variables",
			Action:  "Supply one column per variable plus the geography column",
			Code:    "VAL002",
		}
	}

	if errors.Is(err, ErrUnknownDataset) {
		return UserMessage{
			Message: "The requested dataset is not configured",
			Action:  "List /api/datasets for the available keys",
			Code:    "DS001",
		}
	}

	if errors.Is(err, ErrSnapshotNotFound) {
		return UserMessage{
			Message: "The requested snapshot does not exist",
			Action:  "List /api/snapshots for the available IDs",
			Code:    "DS002",
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
}
