package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/boxstock/backend/docs"
	catalogapp "github.com/boxstock/backend/internal/application/catalog"
	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	warehouseapp "github.com/boxstock/backend/internal/application/warehouse"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/infrastructure/cache"
	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/boxstock/backend/internal/infrastructure/event"
	"github.com/boxstock/backend/internal/infrastructure/logger"
	"github.com/boxstock/backend/internal/infrastructure/messaging"
	"github.com/boxstock/backend/internal/infrastructure/metrics"
	"github.com/boxstock/backend/internal/infrastructure/persistence"
	"github.com/boxstock/backend/internal/infrastructure/scheduler"
	"github.com/boxstock/backend/internal/infrastructure/telemetry"
	"github.com/boxstock/backend/internal/interfaces/http/handler"
	"github.com/boxstock/backend/internal/interfaces/http/middleware"
	"github.com/boxstock/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Boxstock Backend API
//	@version		1.0
//	@description	Warehouse fulfillment backend: orders, stock ledger, stagnant returns and catalog
//
//	@contact.name	API Support
//	@contact.url	https://github.com/boxstock/backend
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(baseLog)

	ctx := context.Background()

	// Telemetry: logs first so every later component logs through the bridge
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog)

	log.Info("Starting boxstock",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.NewDBTracing(cfg.Telemetry, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	promMetrics := metrics.New()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := promMetrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	districtRepo := persistence.NewGormDistrictRepository(db.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	stockRepo := persistence.NewGormStockRecordRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	salesRepo := persistence.NewGormSalesHistoryRepository(db.DB)
	returnRepo := persistence.NewGormStagnantReturnRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Row locks serialize ledger mutations per (product, warehouse)
	rowLocker, closeLocker, err := cache.NewRowLockerFactory(cfg.Ledger, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create()
	if err != nil {
		log.Fatal("Failed to create row locker", zap.Error(err))
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log.Named("events"),
		event.WithAsyncDispatch(cfg.Event.BufferSize, cfg.Event.Workers),
	)

	// Application services
	warehouseService := warehouseapp.NewWarehouseService(warehouseRepo, districtRepo, employeeRepo, log)
	warehouseService.SetEventPublisher(eventBus)

	productService := catalogapp.NewProductService(productRepo, stockRepo, log)
	productService.SetEventPublisher(eventBus)

	ledgerService := inventoryapp.NewStockLedgerService(
		stockRepo, reservationRepo, productRepo, warehouseRepo, txScope, rowLocker, log,
		inventoryapp.WithLockWait(cfg.Ledger.LockWait),
		inventoryapp.WithLedgerMetrics(promMetrics),
	)
	ledgerService.SetEventPublisher(eventBus)

	classifier := inventory.NewStockHealthClassifier(cfg.StockHealth.HealthThresholds(), time.Now)
	healthService := inventoryapp.NewStockHealthService(stockRepo, salesRepo, warehouseRepo, classifier, log)
	healthService.SetMetrics(promMetrics)
	if window, err := cfg.StockHealth.Window(); err == nil {
		healthService.SetDefaultWindow(window)
	}

	returnService := inventoryapp.NewStagnantReturnService(
		returnRepo, stockRepo, salesRepo, employeeRepo, classifier, cfg.StockHealth.ReturnUrgency(), log,
	)
	returnService.SetEventPublisher(eventBus)
	returnService.SetMetrics(promMetrics)
	stagnationScanner := inventoryapp.NewStagnationScanner(stockRepo, returnService, log)

	orderService := fulfillmentapp.NewOrderService(orderRepo, productRepo, warehouseRepo, employeeRepo, ledgerService, rowLocker, log)
	orderService.SetEventPublisher(eventBus)
	orderService.SetMetrics(promMetrics)

	// Restocks resume WAITING_STOCK orders for the product
	eventBus.Subscribe(fulfillmentapp.NewStockRestockedHandler(orderService, cfg.Scheduler.SweepBatchSize, log))

	// Kafka relay
	var kafkaProducer *messaging.Producer
	if cfg.Kafka.Enabled {
		serializer := event.NewEventSerializer()
		event.RegisterAllEvents(serializer)

		kafkaProducer = messaging.NewProducer(messaging.NewKafkaWriter(cfg.Kafka), serializer, cfg.Kafka.TopicPrefix, log.Named("kafka"))
		breaker := messaging.NewCircuitBreaker(messaging.BreakerConfig{
			Name:             "kafka",
			MaxFailures:      cfg.Kafka.BreakerMaxFails,
			OpenTimeout:      cfg.Kafka.BreakerOpenFor,
			HalfOpenRequests: cfg.Kafka.BreakerHalfOpenN,
		}, log)
		relay := messaging.NewEventRelay(kafkaProducer, breaker, cfg.Kafka.TopicPrefix, log.Named("kafka"))
		relay.SetMetrics(promMetrics)
		eventBus.Subscribe(relay)
		log.Info("Kafka relay enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Background jobs
	var (
		jobScheduler *scheduler.Scheduler
		jobTrigger   *scheduler.IntervalTrigger
	)
	if cfg.Scheduler.Enabled {
		runner := scheduler.NewJobRunner(stagnationScanner, healthService, orderService, cfg.Scheduler.SweepBatchSize, log.Named("jobs"))
		runner.SetWaitingGauge(promMetrics)

		jobScheduler = scheduler.NewScheduler(cfg.Scheduler, runner, log.Named("scheduler"))
		jobScheduler.SetMetrics(promMetrics)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}

		jobTrigger = scheduler.NewIntervalTrigger(cfg.Scheduler, jobScheduler, warehouseService, log.Named("scheduler"))
		if err := jobTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start job trigger", zap.Error(err))
		}
	}

	// HTTP
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	engineOpts := router.EngineOptions{
		Env:           cfg.App.Env,
		ServiceName:   cfg.Telemetry.ServiceName,
		HTTP:          cfg.HTTP,
		Telemetry:     cfg.Telemetry,
		Swagger:       cfg.Swagger,
		Logger:        log,
		MeterProvider: meterProvider,
		RateLimiter:   rateLimiter,
	}
	if cfg.Metrics.Enabled {
		engineOpts.MetricsPath = cfg.Metrics.Path
		engineOpts.MetricsHandler = promMetrics.Handler()
	}
	engine := router.NewEngine(engineOpts)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterRoot(handler.NewHealthHandler(version).AddCheck("database", db.Ping)).
		Register(
			handler.NewOrderHandler(orderService),
			handler.NewStockHandler(ledgerService, healthService),
			handler.NewReturnHandler(returnService),
			handler.NewProductHandler(productService),
			handler.NewAdminHandler(warehouseService),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if jobTrigger != nil {
		if err := jobTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Job trigger stop", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Scheduler stop", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop", zap.Error(err))
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Warn("Kafka producer close", zap.Error(err))
		}
	}
	if err := closeLocker(); err != nil {
		log.Warn("Row locker close", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Log provider shutdown", zap.Error(err))
	}
}
