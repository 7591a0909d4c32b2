// Package render writes JSON responses and maps domain errors onto the
// {"code","message"} error envelope shared by the public API and the admin.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Error codes.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Renderer writes responses and logs what it cannot send.
type Renderer struct {
	logger *zap.Logger
}

// New returns a Renderer logging to logger.
func New(logger *zap.Logger) Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Renderer{logger: logger}
}

// JSON encodes payload with the given status.
func (rd Renderer) JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			rd.logger.Warn("failed to encode response", zap.Error(err))
		}
	}
}

// Error writes an error envelope.
func (rd Renderer) Error(w http.ResponseWriter, status int, code, message string) {
	rd.JSON(w, status, ErrorResponse{Code: code, Message: message})
}

// DecodeError reports a request body that could not be decoded.
func (rd Renderer) DecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		rd.Error(w, http.StatusUnprocessableEntity, CodeValidation, "Malformed JSON payload")
	case errors.As(err, &typeError):
		rd.Error(w, http.StatusUnprocessableEntity, CodeValidation, fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		rd.Error(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large")
	case errors.Is(err, io.EOF):
		rd.Error(w, http.StatusUnprocessableEntity, CodeValidation, "Request body cannot be empty")
	default:
		rd.Error(w, http.StatusBadRequest, CodeValidation, "Unable to parse request body")
	}
}

// Failure maps err onto a status and error code. Unexpected errors are logged
// with op and answered with a generic 500.
func (rd Renderer) Failure(w http.ResponseWriter, op string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		details := make([]fieldDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, fieldDetail{Field: f.Field, Message: f.Message})
		}
		rd.JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    CodeValidation,
			Message: verr.Error(),
			Details: details,
		})
	case errors.Is(err, repository.ErrNotFound):
		rd.Error(w, http.StatusNotFound, CodeNotFound, "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		rd.Error(w, http.StatusConflict, CodeConflict, "Resource already exists")
	default:
		rd.logger.Error(op+" failed", zap.Error(err))
		rd.Error(w, http.StatusInternalServerError, CodeInternal, "Failed to "+op)
	}
}

// DecodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
