package handlers

import (
	"net/http"
	"strconv"

	"docvault/internal/engine/authz"
	"docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
)

type AuditHandler struct {
	sink   *audit.Sink
	engine *authz.Engine
}

func NewAuditHandler(sink *audit.Sink, engine *authz.Engine) *AuditHandler {
	return &AuditHandler{sink: sink, engine: engine}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), authz.ClassAudit, authz.ActionRead, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	q := r.URL.Query()
	from, _ := strconv.ParseInt(q.Get("from"), 10, 64)
	to, _ := strconv.ParseInt(q.Get("to"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	records, err := h.sink.Query(r.Context(), t.Org.ID, from, to, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
