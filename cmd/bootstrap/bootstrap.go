package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-booking-engine/config"
	"go-booking-engine/internal/availability"
	deliveryHttp "go-booking-engine/internal/delivery/http"
	"go-booking-engine/internal/delivery/http/handler"
	"go-booking-engine/internal/delivery/http/middleware"
	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/internal/engine"
	"go-booking-engine/internal/infrastructure/cache"
	"go-booking-engine/internal/infrastructure/database"
	"go-booking-engine/internal/repository"
	"go-booking-engine/internal/service"
	"go-booking-engine/internal/usecase"
	"go-booking-engine/pkg/metrics"
	"go-booking-engine/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Coordinator service.ReservationCoordinator
	Publisher   service.EventPublisher
	Server      *http.Server

	// stopCoordinator ends background work of the in-process coordinator
	stopCoordinator func()
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Build engine configuration before touching any connection
	engineCfg, err := engineConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid booking configuration: %w", err)
	}

	// Run migrations
	if cfg.DB.Migrate {
		if err := database.RunMigrations(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize reservation coordinator
	switch cfg.Reservation.Backend {
	case config.ReservationBackendMemory:
		memory := service.NewMemoryReservationCoordinator(log, cfg.Reservation.ClaimTTL)
		app.Coordinator = memory
		app.stopCoordinator = memory.Stop
		log.Warn("Using in-process reservation claims, run a single instance only")
	default:
		redisClient, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		app.Coordinator = service.NewRedisReservationCoordinator(redisClient, log, cfg.Reservation.ClaimTTL)
		log.Info("Redis connected successfully")
	}

	// Initialize event publisher
	app.Publisher = service.NewEventPublisher(log, cfg.Kafka.Brokers, cfg.Kafka.Topic)

	// Initialize all layers
	app.Server = initializeServer(cfg, log, db, app.Coordinator, app.Publisher, engineCfg)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", level)
	}
	logrus.SetLevel(parsed)

	return logrus.StandardLogger()
}

// engineConfig turns configuration into engine defaults
func engineConfig(cfg *config.Config) (engine.Config, error) {
	granularity, err := entity.NewDuration(cfg.Availability.GranularityMinutes)
	if err != nil {
		return engine.Config{}, err
	}

	policy, err := entity.NewBookingPolicy(entity.BookingPolicyParams{
		MinAdvanceHours:         cfg.Policy.MinAdvanceHours,
		MaxAdvanceDays:          cfg.Policy.MaxAdvanceDays,
		CancellationWindowHours: cfg.Policy.CancellationWindowHours,
		CancellationFeePercent:  cfg.Policy.CancellationFeePercent,
		AllowReschedule:         cfg.Policy.AllowReschedule,
		RescheduleWindowHours:   cfg.Policy.RescheduleWindowHours,
		MaxReschedules:          cfg.Policy.MaxReschedules,
		RequireDeposit:          cfg.Policy.RequireDeposit,
		DepositPercent:          cfg.Policy.DepositPercent,
		AutoConfirm:             cfg.Policy.AutoConfirm,
	})
	if err != nil {
		return engine.Config{}, err
	}

	return engine.Config{
		Availability:  availability.Options{Granularity: granularity},
		MaxRangeDays:  cfg.Availability.MaxRangeDays,
		DefaultPolicy: policy,
	}, nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	log *logrus.Logger,
	db *gorm.DB,
	coordinator service.ReservationCoordinator,
	publisher service.EventPublisher,
	engineCfg engine.Config,
) *http.Server {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize metrics
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
	}

	// Initialize repositories
	calendarRepo := repository.NewCalendarRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	bookingEngine := engine.New(log, calendarRepo, bookingRepo, coordinator, engineCfg)

	// Initialize usecases
	bookingUsecase := usecase.NewBookingUsecase(db, log, bookingEngine, bookingRepo, auditLogRepo, auditService, coordinator, publisher, recorder, entity.SystemClock{})
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	actorMiddleware := middleware.NewActorMiddleware()
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	var metricsHandler http.Handler
	if recorder != nil {
		metricsHandler = recorder.Handler()
	}
	router := deliveryHttp.NewRouter(bookingHandler, auditLogHandler, actorMiddleware, corsMiddleware, cfg.Metrics.Path, metricsHandler)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, kafka, etc.)
func (app *App) Close() {
	// Stop in-process claim cleanup
	if app.stopCoordinator != nil {
		app.stopCoordinator()
	}

	// Flush pending events
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Log.Warnf("Failed to close event publisher: %v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
