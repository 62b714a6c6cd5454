package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "agrihub/internal/api/context"
	"agrihub/internal/api/handlers"
	"agrihub/internal/api/middleware"
	"agrihub/internal/pkg/errors"
	"agrihub/internal/platform/auth"
)

type Dependencies struct {
	HealthHandler       *handlers.HealthHandler
	WebhookHandler      *handlers.WebhookHandler
	WorkflowHandler     *handlers.WorkflowHandler
	IntelligenceHandler *handlers.IntelligenceHandler
	SentinelHandler     *handlers.SentinelHandler
	NotificationHandler *handlers.NotificationHandler
	OdooHandler         *handlers.OdooHandler
	RobotHandler        *handlers.RobotHandler
	AuthMiddleware      *middleware.AuthMiddleware
	TenantMiddleware    *middleware.TenantMiddleware
}

// adminRoles may mutate gateway state and trigger upstream actions.
var adminRoles = []string{"TenantAdmin", "PlatformAdmin"}

func NewRouter(prefix string, deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	admin := requireRole(adminRoles...)

	// Health
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET(prefix+"/health/integrations",
		chain(deps.HealthHandler.Integrations, authMid.Handle))
	router.GET(prefix+"/health/integrations/:integration_id",
		chain(deps.HealthHandler.Integration, authMid.Handle))

	// Webhook registry
	router.GET(prefix+"/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle))
	router.POST(prefix+"/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, admin))
	router.PUT(prefix+"/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, authMid.Handle, admin))
	router.DELETE(prefix+"/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, admin))
	router.POST(prefix+"/webhooks/:webhook_id/test",
		chain(deps.WebhookHandler.Test, authMid.Handle, admin))

	// Inbound event intake. httprouter cannot register the static "inbound"
	// segment next to the :webhook_id wildcard, so the wildcard route owns
	// POST /webhooks/{id} and matches the literal here. No credential: the
	// body signature is the only gate.
	router.POST(prefix+"/webhooks/:webhook_id", wrap(func(w http.ResponseWriter, r *http.Request) {
		if paramFrom(r, "webhook_id") != "inbound" {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Not found", nil)
			return
		}
		deps.WebhookHandler.Inbound(w, r)
	}))

	// n8n workflows
	router.GET(prefix+"/n8n/workflows",
		chain(deps.WorkflowHandler.ListWorkflows, authMid.Handle))
	router.GET(prefix+"/n8n/workflows/:workflow_id",
		chain(deps.WorkflowHandler.GetWorkflow, authMid.Handle))
	router.POST(prefix+"/n8n/workflows/:workflow_id/toggle",
		chain(deps.WorkflowHandler.ToggleWorkflow, authMid.Handle, admin))
	router.POST(prefix+"/n8n/workflows/:workflow_id/execute",
		chain(deps.WorkflowHandler.ExecuteWorkflow, authMid.Handle, tenantMid.Handle, admin))
	router.GET(prefix+"/n8n/webhooks",
		chain(deps.WorkflowHandler.ListWebhookEndpoints, authMid.Handle))
	router.GET(prefix+"/n8n/executions",
		chain(deps.WorkflowHandler.ListExecutions, authMid.Handle))
	router.GET(prefix+"/n8n/executions/:execution_id",
		chain(deps.WorkflowHandler.GetExecution, authMid.Handle))

	// Intelligence service
	router.POST(prefix+"/intelligence/predict",
		chain(deps.IntelligenceHandler.RequestPrediction, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/intelligence/predictions/:job_id",
		chain(deps.IntelligenceHandler.GetPrediction, authMid.Handle))
	router.GET(prefix+"/intelligence/entities/:entity_id/predictions",
		chain(deps.IntelligenceHandler.GetEntityPredictions, authMid.Handle, tenantMid.Handle))
	router.POST(prefix+"/intelligence/webhook",
		chain(deps.IntelligenceHandler.TriggerWebhook, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/intelligence/plugins",
		chain(deps.IntelligenceHandler.ListPlugins, authMid.Handle))

	// Sentinel / NDVI
	router.POST(prefix+"/sentinel/analyze",
		chain(deps.SentinelHandler.RequestAnalysis, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/sentinel/parcels/:parcel_id/results",
		chain(deps.SentinelHandler.GetAnalysisResults, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/sentinel/alerts",
		chain(deps.SentinelHandler.GetAlerts, authMid.Handle, tenantMid.Handle))
	router.PUT(prefix+"/sentinel/parcels/:parcel_id/thresholds",
		chain(deps.SentinelHandler.SetThresholds, authMid.Handle, tenantMid.Handle, admin))

	// Notifications
	router.POST(prefix+"/notifications/send",
		chain(deps.NotificationHandler.Send, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/notifications/templates",
		chain(deps.NotificationHandler.GetTemplates, authMid.Handle))
	router.POST(prefix+"/notifications/test",
		chain(deps.NotificationHandler.TestChannel, authMid.Handle, admin))

	// Odoo ERP
	router.GET(prefix+"/odoo/status",
		chain(deps.OdooHandler.GetStatus, authMid.Handle))
	router.POST(prefix+"/odoo/sync",
		chain(deps.OdooHandler.TriggerSync, authMid.Handle, tenantMid.Handle, admin))
	router.GET(prefix+"/odoo/parcels",
		chain(deps.OdooHandler.GetParcels, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/odoo/harvests",
		chain(deps.OdooHandler.GetHarvests, authMid.Handle, tenantMid.Handle))
	router.POST(prefix+"/odoo/push/:model",
		chain(deps.OdooHandler.Push, authMid.Handle, tenantMid.Handle, admin))

	// ROS2 robots
	router.GET(prefix+"/ros2/robots",
		chain(deps.RobotHandler.ListRobots, authMid.Handle, tenantMid.Handle))
	router.GET(prefix+"/ros2/robots/:robot_id",
		chain(deps.RobotHandler.GetRobot, authMid.Handle, tenantMid.Handle))
	router.POST(prefix+"/ros2/commands",
		chain(deps.RobotHandler.SendCommand, authMid.Handle, tenantMid.Handle, admin))
	router.GET(prefix+"/ros2/missions",
		chain(deps.RobotHandler.ListMissions, authMid.Handle, tenantMid.Handle))
	router.POST(prefix+"/ros2/missions",
		chain(deps.RobotHandler.CreateMission, authMid.Handle, tenantMid.Handle, admin))
	router.GET(prefix+"/ros2/robots/:robot_id/telemetry",
		chain(deps.RobotHandler.TelemetryStreamInfo, authMid.Handle, tenantMid.Handle))

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

func paramFrom(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
			if !ok || !claims.HasRole(roles...) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
