package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"docvault/internal/engine/files"
	"docvault/internal/pkg/errors"
)

type FileHandler struct {
	svc *files.Service
}

func NewFileHandler(svc *files.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.svc.List(r.Context(), t.AuthzActor(), r.URL.Query().Get("path"), limit)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": list,
		"count": len(list),
	})
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	f, err := h.svc.Get(r.Context(), t.AuthzActor(), param(r, "file_id"), shareToken(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type RenameFileRequest struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	var req RenameFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	f, err := h.svc.Rename(r.Context(), t.AuthzActor(), param(r, "file_id"), req.Name, req.Version)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if err := h.svc.Delete(r.Context(), t.AuthzActor(), param(r, "file_id"), shareToken(r)); err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	url, err := h.svc.DownloadURL(r.Context(), t.AuthzActor(), param(r, "file_id"), shareToken(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// shareToken pulls a presented link-share token off the request, if any.
func shareToken(r *http.Request) string {
	if tok := r.URL.Query().Get("share_token"); tok != "" {
		return tok
	}
	return r.Header.Get("X-Share-Token")
}
