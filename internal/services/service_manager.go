package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/llm"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Seed the question set from the embedded catalog when it is empty
	SeedQuestions bool

	// Main admin created on first start
	MainAdminUsername string
	MainAdminPassword string
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.EventPublisher
	tutor     llm.Tutor
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	profileService      ProfileService
	importExportService ImportExportService
	quizService         QuizService
	storeService        StoreService
	chatService         ChatService
	notificationService NotificationService
	adminService        AdminService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, tutor llm.Tutor, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		tutor:     tutor,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, publisher events.EventPublisher, tutor llm.Tutor, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	return NewServiceManager(repo, publisher, tutor, logger, validator, ServiceManagerConfig{
		SeedQuestions: true,
	})
}

// Initialize sets up all services and seeds reference data
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.initializeServices()

	if err := sm.seed(ctx); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.profileService = NewProfileService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Profile service initialized")

	sm.importExportService = NewImportExportService(sm.repo, sm.profileService, sm.logger, sm.validator)
	sm.logger.Info("ImportExport service initialized")

	sm.quizService = NewQuizService(sm.repo, sm.profileService, sm.logger)
	sm.logger.Info("Quiz service initialized")

	sm.storeService = NewStoreService(sm.repo, sm.publisher, sm.logger)
	sm.logger.Info("Store service initialized")

	sm.chatService = NewChatService(sm.profileService, sm.tutor, sm.logger)
	if sm.tutor == nil {
		sm.logger.Warn("Chat service initialized without a tutor; messages will be saved unanswered")
	} else {
		sm.logger.Info("Chat service initialized")
	}

	sm.notificationService = NewNotificationService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Notification service initialized")

	sm.adminService = NewAdminService(sm.repo, sm.logger)
	sm.logger.Info("Admin service initialized")
}

func (sm *serviceManager) seed(ctx context.Context) error {
	if sm.config.SeedQuestions {
		if err := sm.quizService.EnsureQuestions(ctx); err != nil {
			return err
		}
	}
	return sm.adminService.EnsureMainAdmin(ctx, sm.config.MainAdminUsername, sm.config.MainAdminPassword)
}

// Service getters
func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.profileService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.importExportService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.quizService
}

func (sm *serviceManager) Store() StoreService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.storeService
}

func (sm *serviceManager) Chat() ChatService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.chatService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.adminService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
