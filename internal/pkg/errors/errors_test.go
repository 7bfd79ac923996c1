package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"Forbidden", ErrForbidden, http.StatusNotFound, ErrCodeNotFound},
		{"Not Found", ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"Conflict", ErrConflict, http.StatusConflict, ErrCodeConflict},
		{"Invalid Upload Size", ErrInvalidUploadSize, http.StatusBadRequest, ErrCodeInvalidUploadSize},
		{"Incomplete Upload", ErrIncompleteUpload, http.StatusBadRequest, ErrCodeIncompleteUpload},
		{"Invalid Input", ErrInvalidInput, http.StatusBadRequest, ErrCodeInvalidInput},
		{"Dependency", ErrDependency, http.StatusBadGateway, ErrCodeDependencyFailure},
		{"Wrapped Sentinel", fmt.Errorf("%w: part 3 not reported", ErrIncompleteUpload), http.StatusBadRequest, ErrCodeIncompleteUpload},
		{"Unknown", fmt.Errorf("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
		})
	}
}

// Denied and absent must be indistinguishable on the wire, or resource ids
// leak across tenants through the status code.
func TestWriteServiceError_ForbiddenNotFoundIdentical(t *testing.T) {
	forbidden := httptest.NewRecorder()
	WriteServiceError(forbidden, ErrForbidden)

	notFound := httptest.NewRecorder()
	WriteServiceError(notFound, ErrNotFound)

	if forbidden.Code != notFound.Code {
		t.Errorf("status codes differ: %d vs %d", forbidden.Code, notFound.Code)
	}
	if forbidden.Body.String() != notFound.Body.String() {
		t.Errorf("bodies differ:\n%s\n%s", forbidden.Body.String(), notFound.Body.String())
	}
}
