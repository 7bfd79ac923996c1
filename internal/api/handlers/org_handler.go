package handlers

import (
	"encoding/json"
	"net/http"

	"docvault/internal/engine/authz"
	"docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/models"
	"docvault/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo *repositories.OrganizationRepository
	engine  *authz.Engine
	sink    *audit.Sink
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, engine *authz.Engine, sink *audit.Sink) *OrgHandler {
	return &OrgHandler{orgRepo: orgRepo, engine: engine, sink: sink}
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassOrg, authz.ActionRead, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, t.Org)
}

type UpdateOrgRequest struct {
	Name           string `json:"name,omitempty"`
	QuotaBytes     *int64 `json:"quota_bytes,omitempty"`
	IsolationMode  string `json:"isolation_mode,omitempty"`
	StorageBucket  string `json:"storage_bucket,omitempty"`
	EncryptionMode string `json:"encryption_mode,omitempty"`
}

// Update mutates the organization's display name and storage configuration.
// The storage prefix is deliberately not updatable: it anchors tenant
// isolation for every key already derived.
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassOrg, authz.ActionUpdate, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	var req UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	org := t.Org
	if req.Name != "" {
		org.Name = req.Name
	}
	if req.QuotaBytes != nil {
		org.QuotaBytes = *req.QuotaBytes
	}
	if req.IsolationMode != "" {
		if req.IsolationMode != models.IsolationPrefix && req.IsolationMode != models.IsolationBucket {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown isolation mode", nil)
			return
		}
		org.IsolationMode = req.IsolationMode
	}
	if req.StorageBucket != "" {
		org.StorageBucket = req.StorageBucket
	}
	if req.EncryptionMode != "" {
		org.EncryptionMode = req.EncryptionMode
	}

	if err := h.orgRepo.UpdateStorageSettings(org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update organization", nil)
		return
	}

	if _, err := h.sink.Record(r.Context(), org.ID, t.Actor.ID, "org.settings.updated", "org", org.ID, map[string]interface{}{
		"name":           org.Name,
		"isolation_mode": org.IsolationMode,
	}); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}
