package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutor-service/internal/config"
	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/handlers"
	"github.com/SAP-F-2025/tutor-service/internal/jobs"
	"github.com/SAP-F-2025/tutor-service/internal/llm"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/realtime"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/memory"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
	"github.com/SAP-F-2025/tutor-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	var db *gorm.DB
	var repoManager repositories.RepositoryManager
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		repoManager = memory.NewRepositoryManager()
	default:
		db, err = pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:             db,
			RedisClient:    redisClient,
			CasdoorEnabled: cfg.Casdoor.Enabled(),
			CasdoorConfig: casdoor.CasdoorConfig{
				Endpoint:         cfg.Casdoor.Endpoint,
				ClientID:         cfg.Casdoor.ClientID,
				ClientSecret:     cfg.Casdoor.ClientSecret,
				Certificate:      cfg.Casdoor.Cert,
				OrganizationName: cfg.Casdoor.Organization,
				ApplicationName:  cfg.Casdoor.Application,
			},
		})
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize change feed
	pubSub, err := pkg.NewPubSub(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %v", err)
	}
	logger.Info("Change feed ready", "backend", pubSub.Backend)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := realtime.NewHub(pubSub.Subscriber, slogLogger)
	if err := hub.Run(hubCtx, events.Topics...); err != nil {
		log.Fatalf("Failed to start realtime hub: %v", err)
	}

	// Initialize tutor
	var tutor llm.Tutor
	if cfg.GeminiAPIKey != "" {
		tutor = llm.NewGeminiTutor(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, &http.Client{Timeout: 60 * time.Second}, slogLogger)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repo, events.NewWatermillEventPublisher(pubSub.Publisher, slogLogger), tutor, slogLogger, validator, services.ServiceManagerConfig{
		SeedQuestions:     true,
		MainAdminUsername: cfg.MainAdminUsername,
		MainAdminPassword: cfg.AdminBootstrapPassword,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize sessions
	var records session.RecordStore = session.NewMemoryRecordStore()
	if redisClient != nil {
		records = session.NewRedisRecordStore(redisClient)
	}
	sources := &realtime.Sources{
		Students: realtime.NewTopicStream(hub, events.TopicStudentsChanged, serviceManager.Profile().GetStudents, slogLogger),
		Notifications: func(studentID string) realtime.Stream[*models.Notification] {
			return realtime.NewTopicStream(hub, events.TopicNotificationsChanged, func(ctx context.Context) ([]*models.Notification, error) {
				return serviceManager.Notification().ListForStudent(ctx, studentID)
			}, slogLogger)
		},
		Admins: repo.Admin(),
	}
	sessionManager := session.NewManager(repo, serviceManager.Profile(), records, sources, cfg.InactivityTimeout, slogLogger)

	// Initialize scheduled backups
	var scheduler *jobs.Scheduler
	if cfg.BackupDir != "" {
		scheduler, err = jobs.NewScheduler(cfg.BackupSchedule, jobs.NewBackupJob(serviceManager.Profile(), cfg.BackupDir, slogLogger), slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize backup scheduler: %v", err)
		}
		scheduler.Start()
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, sessionManager, validator, logger, cfg.AllowedOrigins)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)

	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		scheduler.Stop(ctx)
	}

	// Stop watchdogs and bridges; durable session records survive the restart
	sessionManager.Shutdown()

	// Shutdown services (closes the event publisher)
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	stopHub()
	if err := pubSub.Subscriber.Close(); err != nil {
		log.Printf("Failed to close subscriber: %v", err)
	}
	hub.Wait()

	// Closes the database connection
	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
