package router

import (
	"time"

	"chainpilot/internal/config"
	"chainpilot/internal/handler"
	"chainpilot/internal/infra"
	"chainpilot/internal/metrics"
	"chainpilot/internal/middleware"
	"chainpilot/internal/model"
	"chainpilot/internal/notify"
	"chainpilot/internal/repository"
	"chainpilot/internal/service"
	"chainpilot/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← View ← Service ← Repository ← DB, with the
// bus shared by writers (publish) and views (subscribe).
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, bus notify.PubSub, automationCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Metrics ──────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	// ── Infrastructure ───────────────────────────────────────────────────────
	automationClient := infra.NewAutomationClient(cfg.AutomationWebhookURL, cfg.AutomationTimeout)

	// ── Repositories ─────────────────────────────────────────────────────────
	inventoryRepo := repository.NewInventoryRepository(db, cfg.StoreTimeout)
	suggestionRepo := repository.NewSuggestionRepository(db, cfg.StoreTimeout)
	locationRepo := repository.NewLocationRepository(db, cfg.StoreTimeout)
	forecastRepo := repository.NewForecastRepository(db, cfg.StoreTimeout)
	transferRepo := repository.NewTransferRepository(db, cfg.StoreTimeout)
	profileRepo := repository.NewProfileRepository(db, cfg.StoreTimeout)

	// ── Services ─────────────────────────────────────────────────────────────
	inventorySvc := service.NewInventoryService(inventoryRepo, bus)
	suggestionSvc := service.NewSuggestionService(suggestionRepo, cfg.SuggestionsGloballyVisible)
	workflow := service.NewSuggestionWorkflow(suggestionRepo, bus)
	locationSvc := service.NewLocationService(locationRepo)
	forecastSvc := service.NewForecastService(forecastRepo)
	transferSvc := service.NewTransferService(transferRepo)
	automationSvc := service.NewAutomationService(automationClient, automationCB)

	live := view.NewRegistry()
	deps := view.Deps{
		Bus:         bus,
		Inventory:   inventorySvc,
		Suggestions: suggestionSvc,
		Workflow:    workflow,
		Locations:   locationSvc,
		Forecasts:   forecastSvc,
		Transfers:   transferSvc,
		Live:        live,
		LoadTimeout: cfg.StoreTimeout,
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	locationsH := handler.NewLocationsHandler(locationSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	forecastsH := handler.NewForecastsHandler(forecastSvc)
	transfersH := handler.NewTransfersHandler(transferSvc)
	suggestionsH := handler.NewSuggestionsHandler(suggestionSvc, workflow, live)
	automationH := handler.NewAutomationHandler(automationSvc)
	viewsH := handler.NewViewsHandler(deps, cfg.ViewHeartbeat)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, automationCB))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Protected routes; every role reads, scope narrows what it sees.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret, profileRepo))
	{
		v1.GET("/locations", locationsH.List)

		v1.GET("/inventory", inventoryH.List)
		v1.PATCH("/inventory/:id/stock",
			middleware.RequireRole(model.RoleStoreManager, model.RoleWarehouseManager, model.RoleAdmin),
			inventoryH.AdjustStock)

		v1.GET("/forecasts", forecastsH.List)
		v1.GET("/transfers", transfersH.ListRequests)
		v1.GET("/transfer-logs", transfersH.ListLogs)

		v1.GET("/suggestions", suggestionsH.List)
		v1.POST("/suggestions/:id/approve", suggestionsH.Approve)
		v1.POST("/suggestions/:id/reject", suggestionsH.Reject)

		views := v1.Group("/views")
		{
			views.GET("/dashboard", viewsH.Dashboard)
			views.GET("/suggestions", viewsH.Suggestions)
			views.GET("/locations/:type/:id", viewsH.Location)
		}

		admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/automation/trigger", automationH.Trigger)
		}
	}

	// Swagger UI, outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
