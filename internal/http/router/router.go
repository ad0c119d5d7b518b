package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/config"
	"github.com/sitetrack/procurement-api/internal/database"
	"github.com/sitetrack/procurement-api/internal/http/handler"
	"github.com/sitetrack/procurement-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/sitetrack/procurement-api/docs" // Import generated swagger docs
)

// ReadinessCheck probes an optional dependency such as the redis lock backend
type ReadinessCheck func(ctx context.Context) error

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth      *handler.AuthHandler
	Order     *handler.OrderHandler
	Delivery  *handler.DeliveryHandler
	Warehouse *handler.WarehouseHandler
	Stock     *handler.StockHandler
	Inventory *handler.InventoryHandler
	Report    *handler.ReportHandler
	Evidence  *handler.EvidenceHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
	readiness      map[string]ReadinessCheck
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
	readiness map[string]ReadinessCheck,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
		readiness:      readiness,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Basic liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readinessHealth)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	procurement := rt.authMiddleware.RequireRole(auth.RoleProcurement, auth.RoleSiteManager)
	receiving := rt.authMiddleware.RequireRole(auth.RoleProcurement, auth.RoleSiteManager, auth.RoleWarehouseKeeper)
	keeper := rt.authMiddleware.RequireRole(auth.RoleWarehouseKeeper)
	custody := rt.authMiddleware.RequireRole(auth.RoleWarehouseKeeper, auth.RoleSiteManager)

	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		r.Get("/auth/me", h.Auth.Me)

		// Orders and staged deliveries
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.List)
			r.With(procurement).Post("/", h.Order.Create)
			r.Get("/{id}", h.Order.GetByID)
			r.Get("/{id}/delivery-state", h.Delivery.GetState)
			r.Get("/{id}/deliveries", h.Delivery.List)
			r.With(receiving).Post("/{id}/deliveries", h.Delivery.Submit)
			r.With(procurement).Post("/{id}/approve", h.Order.Approve)
			r.With(procurement).Post("/{id}/reject", h.Order.Reject)
			r.With(procurement).Post("/{id}/cancel", h.Order.Cancel)
			r.With(procurement).Post("/{id}/complete", h.Order.Complete)
		})
		r.Get("/purchase-requests/{id}/delivery-summary", h.Delivery.PurchaseRequestSummary)

		// Warehouses
		r.Route("/warehouses", func(r chi.Router) {
			r.Get("/", h.Warehouse.List)
			r.With(receiving).Post("/", h.Warehouse.Create)
			r.Get("/{id}", h.Warehouse.GetByID)
		})

		// Stock ledger
		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.Stock.List)
			r.Get("/movements", h.Stock.ListMovements)
			r.With(keeper).Post("/movements", h.Stock.RecordMovement)
			r.With(keeper).Post("/transfers", h.Stock.Transfer)
			r.With(keeper).Post("/adjustments", h.Stock.Adjust)
			r.With(keeper).Put("/levels", h.Stock.SetLevels)
			r.Get("/anomalies", h.Stock.ListAnomalies)
			r.With(custody).Post("/anomalies/{id}/resolve", h.Stock.ResolveAnomaly)
			r.Get("/{productId}/{warehouseId}", h.Stock.GetCell)
		})

		// Custody inventory
		r.Get("/users/{userId}/inventory", h.Inventory.ListForUser)
		r.Route("/inventory", func(r chi.Router) {
			r.With(custody).Post("/assignments", h.Inventory.Assign)
			r.Get("/{id}", h.Inventory.GetByID)
			r.Post("/{id}/consume", h.Inventory.Consume)
			r.With(custody).Post("/{id}/status", h.Inventory.ChangeStatus)
			r.Get("/{id}/consumptions", h.Inventory.ListConsumptions)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Use(receiving)
			r.Get("/products/{id}/locations", h.Report.ProductLocations)
			r.Get("/stock/export", h.Report.ExportStock)
		})

		r.Get("/evidence/*", h.Evidence.Download)
	})

	return r
}

// databaseHealth is a readiness probe with connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			"max_idle_closed":      stats.MaxIdleClosed,
			"max_lifetime_closed":  stats.MaxLifetimeClosed,
		},
	})
}

// readinessHealth checks the database and every registered dependency
func (rt *Router) readinessHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true
	record := func(name string, err error) {
		if err != nil {
			rt.logger.Error("readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
			return
		}
		checks[name] = map[string]interface{}{"status": "healthy"}
	}

	record("database", database.HealthCheck(rt.db))

	names := make([]string, 0, len(rt.readiness))
	for name := range rt.readiness {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		record(name, rt.readiness[name](ctx))
	}

	if allHealthy {
		writeHealth(w, http.StatusOK, map[string]interface{}{"status": "healthy", "checks": checks})
		return
	}
	writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unhealthy", "checks": checks})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
