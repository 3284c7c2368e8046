package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/tutor-service/internal/cache"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// ErrNotAdmin is returned when a valid Casdoor token belongs to a non-admin user
var ErrNotAdmin = errors.New("casdoor user is not an admin")

// directory is the subset of the Casdoor SDK client used here
type directory interface {
	GetUser(name string) (*casdoorsdk.User, error)
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// AdminCasdoor resolves admins from the local store first and falls back to Casdoor
// for usernames the local store does not know. Casdoor results are cached in Redis.
type AdminCasdoor struct {
	local        repositories.AdminRepository
	client       directory
	cacheManager *cache.CacheManager
}

func NewAdminCasdoor(config CasdoorConfig, redisClient *redis.Client, local repositories.AdminRepository) *AdminCasdoor {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newAdminCasdoor(client, redisClient, local)
}

func newAdminCasdoor(client directory, redisClient *redis.Client, local repositories.AdminRepository) *AdminCasdoor {
	return &AdminCasdoor{
		local:        local,
		client:       client,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== CONVERSION METHODS =====

// convertCasdoorUserToModel converts Casdoor user to internal model
func convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.AdminAccount {
	if casdoorUser == nil {
		return nil
	}

	admin := &models.AdminAccount{
		Username:    casdoorUser.Name,
		DisplayName: casdoorUser.DisplayName,
	}
	if casdoorUser.Avatar != "" {
		avatar := casdoorUser.Avatar
		admin.Avatar = &avatar
	}
	if admin.DisplayName == "" {
		admin.DisplayName = casdoorUser.Name
	}
	return admin
}

// isCasdoorAdmin maps Casdoor roles and user type to the admin role
func isCasdoorAdmin(user *casdoorsdk.User) bool {
	if user.IsAdmin {
		return true
	}
	switch strings.ToLower(user.Type) {
	case "admin", "administrator", "teacher", "instructor":
		return true
	}
	return slices.ContainsFunc(user.Roles, func(r *casdoorsdk.Role) bool {
		if r == nil {
			return false
		}
		name := strings.ToLower(r.Name)
		return name == "admin" || name == "teacher"
	})
}

// ===== READ OPERATIONS =====

func (a *AdminCasdoor) GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	admin, err := a.local.GetByUsername(ctx, username)
	if err == nil {
		return admin, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	var cached models.AdminAccount
	err = a.cacheManager.Admin.CacheOrExecute(ctx, "username:"+strings.ToLower(username), &cached, cache.AdminCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := a.client.GetUser(username)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("casdoor user %s: %w", username, repositories.ErrNotFound)
		}
		return convertCasdoorUserToModel(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &cached, nil
}

func (a *AdminCasdoor) GetMain(ctx context.Context) (*models.AdminAccount, error) {
	return a.local.GetMain(ctx)
}

func (a *AdminCasdoor) List(ctx context.Context) ([]*models.AdminAccount, error) {
	return a.local.List(ctx)
}

func (a *AdminCasdoor) Upsert(ctx context.Context, admin *models.AdminAccount) error {
	if err := a.local.Upsert(ctx, admin); err != nil {
		return err
	}
	cache.InvalidateAdminCache(ctx, a.cacheManager, strings.ToLower(admin.Username))
	return nil
}

// ===== TOKEN EXCHANGE =====

// VerifyToken validates a Casdoor JWT and returns the admin it identifies. The admin is
// mirrored into the local store so later avatar lookups do not need Casdoor.
func (a *AdminCasdoor) VerifyToken(ctx context.Context, token string) (*models.AdminAccount, error) {
	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid casdoor token: %w", err)
	}
	if claims.User.Name == "" {
		return nil, fmt.Errorf("invalid casdoor token: missing user name")
	}
	if !isCasdoorAdmin(&claims.User) {
		return nil, ErrNotAdmin
	}

	admin := convertCasdoorUserToModel(&claims.User)
	if existing, err := a.local.GetByUsername(ctx, admin.Username); err == nil {
		admin.IsMain = existing.IsMain
		admin.Password = existing.Password
		admin.CreatedAt = existing.CreatedAt
	}
	if err := a.Upsert(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
