package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "docvault/internal/api/context"
	"docvault/internal/api/handlers"
	"docvault/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler           *handlers.AuthHandler
	OrgHandler            *handlers.OrgHandler
	UserHandler           *handlers.UserHandler
	FileHandler           *handlers.FileHandler
	ShareHandler          *handlers.ShareHandler
	UploadHandler         *handlers.UploadHandler
	AuditHandler          *handlers.AuditHandler
	BillingWebhookHandler *handlers.BillingWebhookHandler
	HealthHandler         *handlers.HealthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	TenantMiddleware      *middleware.TenantMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/invites/accept", wrap(deps.AuthHandler.AcceptInvite))

	// Billing provider webhook, authenticated by signature alone
	router.POST("/api/v1/billing/webhook", wrap(deps.BillingWebhookHandler.Handle))

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware

	// Organization management
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/organizations/current",
		chain(deps.OrgHandler.Update, authMid.Handle, tenantMid.Handle))

	// User management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/invites",
		chain(deps.UserHandler.Invite, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/users/:user_id",
		chain(deps.UserHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.UserHandler.UpdateRole, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/users/:user_id",
		chain(deps.UserHandler.Remove, authMid.Handle, tenantMid.Handle))

	// Files
	router.GET("/api/v1/files",
		chain(deps.FileHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/files/:file_id",
		chain(deps.FileHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/files/:file_id",
		chain(deps.FileHandler.Rename, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/files/:file_id",
		chain(deps.FileHandler.Delete, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/files/:file_id/download",
		chain(deps.FileHandler.DownloadURL, authMid.Handle, tenantMid.Handle))

	// Shares
	router.POST("/api/v1/files/:file_id/shares",
		chain(deps.ShareHandler.Create, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/files/:file_id/shares",
		chain(deps.ShareHandler.ListForFile, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/v1/shares/:share_id",
		chain(deps.ShareHandler.Revoke, authMid.Handle, tenantMid.Handle))

	// Uploads
	router.POST("/api/v1/uploads",
		chain(deps.UploadHandler.Initiate, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/uploads/:session_id/complete",
		chain(deps.UploadHandler.Complete, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/uploads/:session_id/abort",
		chain(deps.UploadHandler.Abort, authMid.Handle, tenantMid.Handle))

	// Audit trail
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, tenantMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
