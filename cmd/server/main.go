package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatrafleet/service-booking/internal/application"
	"github.com/yatrafleet/service-booking/internal/config"
	"github.com/yatrafleet/service-booking/internal/database"
	"github.com/yatrafleet/service-booking/internal/events"
	"github.com/yatrafleet/service-booking/internal/handler"
	"github.com/yatrafleet/service-booking/internal/health"
	"github.com/yatrafleet/service-booking/internal/logger"
	"github.com/yatrafleet/service-booking/internal/middleware"
	"github.com/yatrafleet/service-booking/internal/reminder"
	"github.com/yatrafleet/service-booking/internal/repository"
	"github.com/yatrafleet/service-booking/internal/scheduling"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.VehicleModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := middleware.NewJWTManager(cfg.JWT.Secret)

	// Initialize Kafka producer for booking events
	producer := events.NewProducer(cfg.Kafka.Brokers, events.TopicBookingEvents, events.SourceBookingService, log)
	defer func() { _ = producer.Close() }()

	// Initialize repositories
	vehicleRepo := repository.NewGormVehicleRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Initialize the scheduling core
	oracle := scheduling.NewTravelTimeOracle(cfg.Maps, nil, log)
	conflicts := scheduling.NewConflictChecker(bookingRepo)
	buffers := scheduling.NewBufferValidator(bookingRepo, oracle)
	engine := scheduling.NewEngine(vehicleRepo, conflicts, buffers, log)

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, vehicleRepo, engine, producer, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)

	// Initialize and start the fleet event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.Kafka.GroupPrefix + "service-booking"
	fleetConsumer := events.NewFleetEventConsumer(cfg.Kafka.Brokers, groupID, vehicleService, log)
	defer func() { _ = fleetConsumer.Close() }()

	go func() {
		log.Info("starting fleet event consumer")
		if err := fleetConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("fleet event consumer error", zap.Error(err))
		}
	}()

	// Start the daily reminder sweep
	var sweeper *reminder.Sweeper
	if cfg.Reminder.Enabled {
		sweeper = reminder.NewSweeper(bookingRepo, producer, log)
		if err := sweeper.Start(cfg.Reminder.CronSpec); err != nil {
			log.Fatal("failed to start reminder sweeper", zap.Error(err))
		}
	}

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	availabilityHandler := handler.NewAvailabilityHandler(bookingService)
	adminHandler := handler.NewAdminHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Register health check routes
	healthHandler := health.NewHandler(db)
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	vehicleHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	availabilityHandler.RegisterRoutes(&router.RouterGroup, jwtManager, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context and stop the sweeper
	cancel()
	if sweeper != nil {
		sweeper.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
