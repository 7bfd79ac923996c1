package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeIncompleteUpload  = "INCOMPLETE_UPLOAD"
	ErrCodeInvalidUploadSize = "INVALID_UPLOAD_SIZE"
	ErrCodeDependencyFailure = "DEPENDENCY_FAILURE"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Sentinel errors used by the engine and platform packages. Handlers translate
// them to HTTP responses via WriteServiceError; nothing below the handler layer
// touches HTTP status codes.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIncompleteUpload  = errors.New("incomplete upload")
	ErrInvalidUploadSize = errors.New("invalid upload size")
	ErrDependency        = errors.New("dependency failure")
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteServiceError maps a sentinel error to its HTTP response. Forbidden and
// NotFound share one response so a caller cannot tell "exists in another
// tenant" apart from "denied".
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Resource not found or access denied", nil)
	case errors.Is(err, ErrConflict):
		WriteError(w, http.StatusConflict, ErrCodeConflict, "Conflict with current resource state", nil)
	case errors.Is(err, ErrInvalidUploadSize):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidUploadSize, "Invalid upload size", nil)
	case errors.Is(err, ErrIncompleteUpload):
		WriteError(w, http.StatusBadRequest, ErrCodeIncompleteUpload, "Upload is missing parts", nil)
	case errors.Is(err, ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, ErrDependency):
		WriteError(w, http.StatusBadGateway, ErrCodeDependencyFailure, "Upstream dependency failed", nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}
