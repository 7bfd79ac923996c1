package main

import (
	"fmt"
	"log"
	"net/http"

	"docvault/internal/api"
	"docvault/internal/api/handlers"
	"docvault/internal/api/middleware"
	"docvault/internal/engine/authz"
	"docvault/internal/engine/billing"
	"docvault/internal/engine/files"
	"docvault/internal/engine/shares"
	"docvault/internal/engine/storage"
	"docvault/internal/engine/uploads"
	"docvault/internal/pkg/logger"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/auth"
	"docvault/internal/platform/config"
	"docvault/internal/platform/database"
	"docvault/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	fileRepo := files.NewRepository(db)
	shareRepo := shares.NewRepository(db)
	sessionRepo := uploads.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	sink := audit.NewSink(db)
	registry := shares.NewRegistry(shareRepo)
	engine := authz.NewEngine(registry)
	store := storage.NewS3Store(cfg.Storage)
	fileSvc := files.NewService(fileRepo, engine, store, sink)
	coordinator := uploads.NewCoordinator(sessionRepo, fileRepo, engine, store, sink, cfg.Uploads, cfg.Storage.DefaultBucket)
	billingSvc := billing.NewService(orgRepo, sink)

	// Handlers
	authHandler := handlers.NewAuthHandler(orgRepo, userRepo, tokenSvc)
	orgHandler := handlers.NewOrgHandler(orgRepo, engine, sink)
	userHandler := handlers.NewUserHandler(userRepo, engine, sink, cfg.Invites.TTL)
	fileHandler := handlers.NewFileHandler(fileSvc)
	shareHandler := handlers.NewShareHandler(registry, fileRepo, engine, sink)
	uploadHandler := handlers.NewUploadHandler(coordinator)
	auditHandler := handlers.NewAuditHandler(sink, engine)
	billingWebhookHandler := handlers.NewBillingWebhookHandler(billingSvc, cfg.Billing.WebhookSecret)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(orgRepo, userRepo)

	// Router
	deps := &api.Dependencies{
		AuthHandler:           authHandler,
		OrgHandler:            orgHandler,
		UserHandler:           userHandler,
		FileHandler:           fileHandler,
		ShareHandler:          shareHandler,
		UploadHandler:         uploadHandler,
		AuditHandler:          auditHandler,
		BillingWebhookHandler: billingWebhookHandler,
		HealthHandler:         healthHandler,
		AuthMiddleware:        authMiddleware,
		TenantMiddleware:      tenantMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
