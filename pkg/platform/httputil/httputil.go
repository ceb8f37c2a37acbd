// Package httputil maps domain errors onto HTTP responses so handlers stay
// free of status-code switch statements.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "locatio/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses. Codes missing from
// the table are treated as internal errors.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:             http.StatusBadRequest,
	dErrors.CodeValidation:             http.StatusBadRequest,
	dErrors.CodeInvalidInput:           http.StatusBadRequest,
	dErrors.CodeInvalidNoticeDate:      http.StatusUnprocessableEntity,
	dErrors.CodeInvalidIndex:           http.StatusUnprocessableEntity,
	dErrors.CodeInvalidDateRange:       http.StatusUnprocessableEntity,
	dErrors.CodeRetainedExceedsDeposit: http.StatusUnprocessableEntity,
	dErrors.CodeMethodMismatch:         http.StatusConflict,
	dErrors.CodeInvalidTransition:      http.StatusConflict,
	dErrors.CodeConflict:               http.StatusConflict,
	dErrors.CodeInvariantViolation:     http.StatusConflict,
	dErrors.CodeNotFound:               http.StatusNotFound,
	dErrors.CodeForbidden:              http.StatusForbidden,
	dErrors.CodeTimeout:                http.StatusGatewayTimeout,
	dErrors.CodeInternal:               http.StatusInternalServerError,
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError renders err as a JSON error response. Internal errors omit the
// description so infrastructure details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	body := errorBody{Error: string(code)}
	if status < http.StatusInternalServerError {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			body.ErrorDescription = coded.Message
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Validatable is implemented by request bodies that validate and parse
// themselves after decoding.
type Validatable interface {
	Validate() error
}

const maxBodyBytes = 1 << 20

// DecodeAndPrepare decodes the JSON body into T and runs its Validate method.
// On failure it writes the error response and returns ok=false; the handler
// should simply return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "request body decode failed",
			"request_id", requestID, "error", err)
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}

	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID, "error", err)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
