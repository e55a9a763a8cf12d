// Package httputil holds the JSON response helpers shared by every handler:
// one encoder, one error envelope, one decode-and-validate entry point.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are
// unrecoverable at this point (headers are out), so they are swallowed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Remaining   *int   `json:"remaining_attempts,omitempty"`
}

// ErrorDetail lets an error contribute structured fields to the envelope, on
// top of its code and message.
type ErrorDetail interface {
	RemainingAttempts() (int, bool)
}

// WriteError renders a domain error as its mapped status with a stable
// machine-readable code. Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}

	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body.Description = de.Message
	}
	var detail ErrorDetail
	if errors.As(err, &detail) {
		if remaining, ok := detail.RemainingAttempts(); ok {
			body.Remaining = &remaining
		}
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Validator is implemented by request payloads that check their own fields.
type Validator interface {
	Validate() error
}

// Decode parses the JSON body into T and runs its validation. On failure it
// writes the error response and returns false.
func Decode[T Validator](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed JSON body"))
		return req, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, err.Error()))
		return req, false
	}
	return req, true
}
