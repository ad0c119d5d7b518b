package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sitetrack/procurement-api/docs"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/config"
	"github.com/sitetrack/procurement-api/internal/database"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/http/handler"
	"github.com/sitetrack/procurement-api/internal/http/middleware"
	"github.com/sitetrack/procurement-api/internal/http/router"
	"github.com/sitetrack/procurement-api/internal/i18n"
	"github.com/sitetrack/procurement-api/internal/jobs"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/logger"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/storage"
	"go.uber.org/zap"
)

// @title Site Procurement API
// @version 1.0
// @description Staged delivery reconciliation, stock ledger and custody inventory for construction sites

// @contact.name API Support
// @contact.email support@sitetrack.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets may come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" && cfg.Auth.APIKey == "" {
		return fmt.Errorf("JWT_SECRET or ADMIN_API_KEY must be configured")
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Warn("Schema auto-migrated; use goose migrations outside development")
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))
	uploader := evidence.NewUploader(fileStorage, cfg.Storage.UploadTimeoutDuration(), log)

	readiness := map[string]router.ReadinessCheck{}

	// Per-key write serialization
	var locker keylock.Locker
	var redisClient *redis.Client
	switch cfg.Lock.Mode {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = keylock.NewRedisLocker(redisClient, keylock.RedisConfig{
			Prefix:        "procurement:lock:",
			TTL:           cfg.Lock.TTLDuration(),
			MaxRetries:    cfg.Lock.MaxRetries,
			RetryInterval: cfg.Lock.RetryIntervalDuration(),
		}, log)
		readiness["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	default:
		locker = keylock.NewMemoryLocker()
	}
	log.Info("Key locker initialized", zap.String("mode", cfg.Lock.Mode))

	// Ledger events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		publisher = kafkaPublisher
		log.Info("Event publishing enabled",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
	}

	translator, err := i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	anomalyRepo := repository.NewAnomalyRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	// Initialize services
	orderService := service.NewOrderService(db, orderRepo, deliveryRepo, locker, publisher, log)
	deliveryService := service.NewDeliveryService(db, orderRepo, deliveryRepo, uploader, locker, publisher, log)
	warehouseService := service.NewWarehouseService(warehouseRepo, locker, log)
	stockService := service.NewStockService(db, warehouseRepo, stockRepo, movementRepo, anomalyRepo, uploader, locker, publisher, log)
	inventoryService := service.NewInventoryService(db, inventoryRepo, warehouseService, stockService, locker, publisher, log)
	reportService := service.NewReportService(warehouseRepo, stockRepo, movementRepo, anomalyRepo, inventoryRepo, log)

	// Initialize middleware
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, 0)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.APIKey, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	errs := handler.NewErrorWriter(translator, log)
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(),
		Order:     handler.NewOrderHandler(orderService, errs, log),
		Delivery:  handler.NewDeliveryHandler(deliveryService, cfg.Storage.MaxUploadSizeMB, errs, log),
		Warehouse: handler.NewWarehouseHandler(warehouseService, errs, log),
		Stock:     handler.NewStockHandler(stockService, cfg.Storage.MaxUploadSizeMB, errs, log),
		Inventory: handler.NewInventoryHandler(inventoryService, errs, log),
		Report:    handler.NewReportHandler(reportService, errs, log),
		Evidence:  handler.NewEvidenceHandler(fileStorage, errs, log),
	}

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, handlers, readiness)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterTransferReconcileJob(
			scheduler,
			stockService,
			log,
			cfg.Jobs.TransferReconcileCron,
			cfg.Jobs.TransferReconcileGraceDuration(),
			cfg.Jobs.TransferReconcileTimeoutDuration(),
			true,
		); err != nil {
			log.Error("Failed to register transfer reconciliation job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with transfer reconciliation job",
				zap.String("cron_expr", cfg.Jobs.TransferReconcileCron),
				zap.Duration("grace", cfg.Jobs.TransferReconcileGraceDuration()),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := publisher.Close(); err != nil {
			log.Warn("Error closing event publisher", zap.Error(err))
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("Error closing redis client", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
