package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type notificationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	changes   changeNotifier
}

func NewNotificationService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) NotificationService {
	return &notificationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		changes:   changeNotifier{publisher: publisher, logger: logger},
	}
}

func (s *notificationService) Create(ctx context.Context, req *models.NotificationCreateRequest) (*models.Notification, error) {
	s.logger.Info("Creating notification", "title", req.Title, "targeted", req.TargetStudentID != nil)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	target := req.TargetStudentID
	if target != nil && strings.TrimSpace(*target) == "" {
		target = nil
	}
	if target != nil {
		if _, err := s.repo.Student().GetByID(ctx, *target); err != nil {
			return nil, mapNotFound(err, ErrStudentNotFound)
		}
	}

	notification := &models.Notification{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Message:         req.Message,
		Attachment:      req.Attachment,
		Timestamp:       time.Now().UTC(),
		ReadBy:          []string{},
		TargetStudentID: target,
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.changes.notify(ctx, events.TopicNotificationsChanged, events.ActionCreated, notification.ID)
	return notification, nil
}

func (s *notificationService) List(ctx context.Context) ([]*models.Notification, error) {
	items, err := s.repo.Notification().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *notificationService) ListForStudent(ctx context.Context, studentID string) ([]*models.Notification, error) {
	items, err := s.repo.Notification().ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, studentID string) (int, error) {
	items, err := s.ListForStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return models.CountUnread(items, studentID), nil
}

// MarkRead adds the student to the read set. Marking twice is a no-op.
func (s *notificationService) MarkRead(ctx context.Context, id, studentID string) error {
	notification, err := s.repo.Notification().GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err, ErrNotificationNotFound)
	}
	if !notification.RelevantTo(studentID) {
		return ErrNotificationNotFound
	}

	changed, err := s.repo.Notification().MarkRead(ctx, id, studentID)
	if err != nil {
		return mapNotFound(err, ErrNotificationNotFound)
	}
	if changed {
		s.changes.notify(ctx, events.TopicNotificationsChanged, events.ActionUpdated, id)
	}
	return nil
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Notification().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrNotificationNotFound)
	}
	s.logger.Info("Notification deleted", "notification_id", id)
	s.changes.notify(ctx, events.TopicNotificationsChanged, events.ActionDeleted, id)
	return nil
}
