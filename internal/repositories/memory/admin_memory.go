package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type adminRepository struct {
	r *Repository
}

func cloneAdmin(a *models.AdminAccount) *models.AdminAccount {
	c := *a
	if a.Avatar != nil {
		v := *a.Avatar
		c.Avatar = &v
	}
	return &c
}

func (a *adminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	defer a.r.lock()()

	for _, item := range a.r.store.admins {
		if strings.EqualFold(item.Username, username) {
			return cloneAdmin(item), nil
		}
	}
	return nil, fmt.Errorf("admin %s: %w", username, repositories.ErrNotFound)
}

func (a *adminRepository) GetMain(ctx context.Context) (*models.AdminAccount, error) {
	defer a.r.lock()()

	for _, item := range a.r.store.admins {
		if item.IsMain {
			return cloneAdmin(item), nil
		}
	}
	return nil, fmt.Errorf("main admin: %w", repositories.ErrNotFound)
}

func (a *adminRepository) List(ctx context.Context) ([]*models.AdminAccount, error) {
	defer a.r.lock()()

	out := make([]*models.AdminAccount, 0, len(a.r.store.admins))
	for _, item := range a.r.store.admins {
		out = append(out, cloneAdmin(item))
	}
	return out, nil
}

func (a *adminRepository) Upsert(ctx context.Context, admin *models.AdminAccount) error {
	defer a.r.lock()()

	for i, item := range a.r.store.admins {
		if strings.EqualFold(item.Username, admin.Username) {
			a.r.store.admins[i] = cloneAdmin(admin)
			return nil
		}
	}
	a.r.store.admins = append(a.r.store.admins, cloneAdmin(admin))
	return nil
}
