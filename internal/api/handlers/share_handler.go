package handlers

import (
	"encoding/json"
	"net/http"

	"docvault/internal/engine/authz"
	"docvault/internal/engine/files"
	"docvault/internal/engine/shares"
	"docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
)

type ShareHandler struct {
	registry *shares.Registry
	fileRepo *files.Repository
	engine   *authz.Engine
	sink     *audit.Sink
}

func NewShareHandler(registry *shares.Registry, fileRepo *files.Repository, engine *authz.Engine, sink *audit.Sink) *ShareHandler {
	return &ShareHandler{registry: registry, fileRepo: fileRepo, engine: engine, sink: sink}
}

type CreateShareRequest struct {
	TargetRole   string   `json:"target_role,omitempty"`
	TargetUserID string   `json:"target_user_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	ExpiresAt    *int64   `json:"expires_at,omitempty"`
}

// Create attaches a share to a file. Role-held share permissions suffice; an
// actor without them can still share through an explicit reshare grant on
// this file, which is never implied by read or write.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)
	fileID := param(r, "file_id")

	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassShares, authz.ActionCreate, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	if !allowed {
		allowed, err = h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassShares, authz.Action("reshare"), authz.Request{
			ResourceID: fileID,
			LinkToken:  shareToken(r),
		})
		if err != nil {
			errors.WriteServiceError(w, err)
			return
		}
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	file, err := h.fileRepo.GetByID(t.Org.ID, fileID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if file == nil || file.IsDeleted {
		errors.WriteServiceError(w, errors.ErrNotFound)
		return
	}

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.TargetRole != "" && req.TargetUserID != "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "A share targets a role or a user, not both", nil)
		return
	}
	if req.TargetRole != "" && !authz.ValidRole(authz.Role(req.TargetRole)) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown role", nil)
		return
	}

	share, err := h.registry.CreateShare(shares.CreateParams{
		FileID:       fileID,
		OrgID:        t.Org.ID,
		TargetRole:   req.TargetRole,
		TargetUserID: req.TargetUserID,
		Permissions:  req.Permissions,
		ExpiresAt:    req.ExpiresAt,
		CreatedBy:    t.Actor.ID,
	})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	meta := map[string]interface{}{
		"share_type":  string(share.Type),
		"permissions": share.Permissions,
	}
	if share.Type == shares.TypeLink {
		// Only a truncated reference of the bearer token ever reaches the log.
		meta["token_ref"] = shares.TokenRef(share.Token)
	}
	if _, err := h.sink.Record(r.Context(), t.Org.ID, t.Actor.ID, "share.created", "share", share.ID, meta); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, share)
}

func (h *ShareHandler) ListForFile(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassShares, authz.ActionRead, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	list, err := h.registry.ListForFile(t.Org.ID, param(r, "file_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shares": list,
		"count":  len(list),
	})
}

// Revoke removes a share. The share's creator may always revoke their own
// share; anyone else needs role-held shares delete.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	share, err := h.registry.Get(t.Org.ID, param(r, "share_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if share == nil {
		errors.WriteServiceError(w, errors.ErrNotFound)
		return
	}

	if share.CreatedBy != t.Actor.ID {
		allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassShares, authz.ActionDelete, authz.Request{})
		if err != nil {
			errors.WriteServiceError(w, err)
			return
		}
		if !allowed {
			errors.WriteServiceError(w, errors.ErrForbidden)
			return
		}
	}

	if err := h.registry.Revoke(t.Org.ID, share.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke share", nil)
		return
	}

	if _, err := h.sink.Record(r.Context(), t.Org.ID, t.Actor.ID, "share.revoked", "share", share.ID, map[string]interface{}{
		"file_id":    share.FileID,
		"share_type": string(share.Type),
	}); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Share revoked"})
}
