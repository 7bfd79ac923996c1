package handlers

import (
	"encoding/json"
	"net/http"

	"docvault/internal/engine/uploads"
	"docvault/internal/pkg/errors"
)

type UploadHandler struct {
	coordinator *uploads.Coordinator
}

func NewUploadHandler(coordinator *uploads.Coordinator) *UploadHandler {
	return &UploadHandler{coordinator: coordinator}
}

type InitiateUploadRequest struct {
	FileName    string `json:"file_name"`
	TotalSize   int64  `json:"total_size"`
	ContentType string `json:"content_type"`
	ParentPath  string `json:"parent_path,omitempty"`
}

func (h *UploadHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	var req InitiateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := h.coordinator.Initiate(r.Context(), t.AuthzActor(), t.Org, uploads.InitiateParams{
		FileName:    req.FileName,
		TotalSize:   req.TotalSize,
		ContentType: req.ContentType,
		ParentPath:  req.ParentPath,
	})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type CompleteUploadRequest struct {
	Parts []uploads.ReportedPart `json:"parts"`
}

func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	session, err := h.coordinator.Complete(r.Context(), t.AuthzActor(), param(r, "session_id"), req.Parts)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *UploadHandler) Abort(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if err := h.coordinator.Abort(r.Context(), t.AuthzActor(), param(r, "session_id")); err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Upload aborted"})
}
