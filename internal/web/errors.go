package web

// errors.go provides unified error response handling for the web layer.
//
// Handlers call respondError with the raw error; it is mapped through
// core.MapError to a user-facing message with a support code, logged with
// full technical detail and the request ID, and returned to the client as
// JSON. The HTTP status derives from the error type: caller mistakes are
// 4xx, upstream census API failures are 502/504.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hjones20/os-data/internal/census"
	"github.com/hjones20/os-data/internal/core"
	"github.com/hjones20/os-data/internal/logging"
)

// ErrorResponse is the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user
// message as JSON with a status derived from the error type.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	statusCode := statusFor(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var mismatch *census.SpecMismatch
	if errors.As(err, &mismatch) {
		return http.StatusBadRequest
	}

	if errors.Is(err, core.ErrUnknownDataset) || errors.Is(err, core.ErrSnapshotNotFound) {
		return http.StatusNotFound
	}

	var netErr *census.NetworkError
	if errors.As(err, &netErr) {
		if netErr.StatusCode != 0 {
			return http.StatusBadGateway
		}
		return http.StatusGatewayTimeout
	}

	var malformed *census.MalformedResponse
	var conv *census.TypeConversionError
	if errors.As(err, &malformed) || errors.As(err, &conv) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// writeJSON encodes v as JSON and writes it to w.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// logExportFailure records an export that failed after headers were sent;
// no error body can be written at that point.
func (s *Server) logExportFailure(r *http.Request, dataset, format string, err error) {
	logging.FromContext(r.Context()).Error("export failed mid-stream",
		"dataset", dataset,
		"format", format,
		"error", err.Error(),
	)
}

// writeBadRequest writes a simple 400 JSON error for malformed request
// parameters that never reach the service layer.
func writeBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
