package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "docvault/internal/api/context"
	"docvault/internal/api/middleware"
)

func tenant(r *http.Request) *middleware.TenantContext {
	t, _ := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	return t
}

func param(r *http.Request, name string) string {
	ps, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return ps.ByName(name)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
