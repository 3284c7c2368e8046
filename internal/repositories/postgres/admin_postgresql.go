package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type AdminPostgreSQL struct {
	db *gorm.DB
}

func NewAdminPostgreSQL(db *gorm.DB) repositories.AdminRepository {
	return &AdminPostgreSQL{db: db}
}

func (a *AdminPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	if err := a.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&admin).Error; err != nil {
		return nil, handleDBError(err, "get admin by username")
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) GetMain(ctx context.Context) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	if err := a.db.WithContext(ctx).Where("is_main = ?", true).Order("created_at ASC").First(&admin).Error; err != nil {
		return nil, handleDBError(err, "get main admin")
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) List(ctx context.Context) ([]*models.AdminAccount, error) {
	var admins []*models.AdminAccount
	if err := a.db.WithContext(ctx).Order("username ASC").Find(&admins).Error; err != nil {
		return nil, handleDBError(err, "list admins")
	}
	return admins, nil
}

func (a *AdminPostgreSQL) Upsert(ctx context.Context, admin *models.AdminAccount) error {
	if err := upsertAll(a.db.WithContext(ctx)).Create(admin).Error; err != nil {
		return handleDBError(err, "upsert admin")
	}
	return nil
}
