package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type adminService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAdminService(repo repositories.Repository, logger *slog.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

// EnsureMainAdmin creates the main admin on first start. An existing account is left
// untouched so a changed password survives restarts.
func (s *adminService) EnsureMainAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}

	_, err := s.repo.Admin().GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to look up main admin: %w", err)
	}

	now := time.Now().UTC()
	admin := &models.AdminAccount{
		Username:    username,
		Password:    password,
		DisplayName: username,
		IsMain:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Admin().Upsert(ctx, admin); err != nil {
		return fmt.Errorf("failed to create main admin: %w", err)
	}

	s.logger.Info("Main admin created", "username", username)
	return nil
}

func (s *adminService) List(ctx context.Context) ([]*models.AdminAccount, error) {
	admins, err := s.repo.Admin().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}
