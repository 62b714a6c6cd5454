package main

import (
	"fmt"
	"log"
	"net/http"

	"agrihub/internal/api"
	"agrihub/internal/api/handlers"
	"agrihub/internal/api/middleware"
	"agrihub/internal/engine/proxy"
	"agrihub/internal/engine/webhooks"
	"agrihub/internal/platform/auth"
	"agrihub/internal/platform/config"
	"agrihub/internal/platform/registry"
	"agrihub/internal/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	// Webhook registry store
	var store registry.Store
	switch cfg.Webhooks.Store {
	case "sqlite":
		sqliteStore, err := registry.NewSQLiteStore(cfg.Webhooks.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open webhook store: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		store = registry.NewMemoryStore()
	}

	// Services
	webhookService := webhooks.NewService(store)
	dispatcher := webhooks.NewDispatcher(store, cfg.Webhooks)
	sink := webhooks.NewDispatchSink(dispatcher)

	verifier := auth.NewVerifier(cfg.Auth)

	// Upstream clients
	n8nClient := proxy.New("n8n", cfg.Services.N8N)
	intelligenceClient := proxy.New("intelligence", cfg.Services.Intelligence)
	ndviClient := proxy.New("ndvi-worker", cfg.Services.NDVIWorker)
	emailClient := proxy.New("email", cfg.Services.Email)
	ros2Client := proxy.New("ros2-bridge", cfg.Services.ROS2Bridge)
	orionClient := proxy.New("orion", cfg.Services.Orion)

	fallback := cfg.Services.FallbackToMock
	odooConfigured := cfg.Services.Odoo.URL != ""

	// Handlers
	healthHandler := handlers.NewHealthHandler("agrihub", version, []handlers.IntegrationCheck{
		{ID: "n8n", Name: "n8n Workflow Engine", Client: n8nClient, HealthPath: "/healthz"},
		{ID: "intelligence", Name: "Intelligence Service", Client: intelligenceClient, HealthPath: "/health"},
		{ID: "ndvi", Name: "Sentinel NDVI Worker", Client: ndviClient, HealthPath: "/health"},
		{ID: "notifications", Name: "Email Service", Client: emailClient, HealthPath: "/health"},
		{ID: "ros2", Name: "ROS2 Bridge", Client: ros2Client, HealthPath: "/health"},
		{ID: "odoo", Name: "Odoo ERP", Client: odooClient(odooConfigured, cfg.Services.Odoo), HealthPath: "/web/health"},
	})
	webhookHandler := handlers.NewWebhookHandler(webhookService, dispatcher, sink, cfg.Webhooks.InboundSecret)
	workflowHandler := handlers.NewWorkflowHandler(n8nClient, fallback)
	intelligenceHandler := handlers.NewIntelligenceHandler(intelligenceClient, fallback)
	sentinelHandler := handlers.NewSentinelHandler(ndviClient, orionClient, cfg.Services.ContextURL, fallback)
	notificationHandler := handlers.NewNotificationHandler(emailClient, dispatcher)
	odooHandler := handlers.NewOdooHandler(odooConfigured)
	robotHandler := handlers.NewRobotHandler(ros2Client, dispatcher, fallback)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(verifier)
	tenantMiddleware := middleware.NewTenantMiddleware()

	// Router
	deps := &api.Dependencies{
		HealthHandler:       healthHandler,
		WebhookHandler:      webhookHandler,
		WorkflowHandler:     workflowHandler,
		IntelligenceHandler: intelligenceHandler,
		SentinelHandler:     sentinelHandler,
		NotificationHandler: notificationHandler,
		OdooHandler:         odooHandler,
		RobotHandler:        robotHandler,
		AuthMiddleware:      authMiddleware,
		TenantMiddleware:    tenantMiddleware,
	}
	router := api.NewRouter(cfg.Server.APIPrefix, deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      middleware.CORS(cfg.CORS, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func odooClient(configured bool, cfg config.UpstreamConfig) *proxy.Client {
	if !configured {
		return nil
	}
	return proxy.New("odoo", cfg)
}
