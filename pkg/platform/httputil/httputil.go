// Package httputil holds the JSON request/response helpers shared by all
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "titlesearch/pkg/domain-errors"
)

// errorResponse is the wire shape of every error body.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and writes the standard
// error body. Internal errors omit the description so infrastructure details
// never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.Description = err.Error()
	}
	WriteJSON(w, dErrors.HTTPStatus(code), resp)
}

// Decode reads the request body into T. On failure it writes a bad-request
// error response and returns false.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		var zero T
		return zero, false
	}
	return payload, true
}
