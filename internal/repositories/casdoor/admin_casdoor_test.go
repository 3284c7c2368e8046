package casdoor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/memory"
)

type fakeDirectory struct {
	users    map[string]*casdoorsdk.User
	claims   *casdoorsdk.Claims
	getCalls int
}

func (f *fakeDirectory) GetUser(name string) (*casdoorsdk.User, error) {
	f.getCalls++
	return f.users[name], nil
}

func (f *fakeDirectory) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if f.claims == nil || token != "valid" {
		return nil, errors.New("bad token")
	}
	return f.claims, nil
}

func setupAdminCasdoor(t *testing.T, dir *fakeDirectory) (*AdminCasdoor, repositories.AdminRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := memory.NewRepository().Admin()
	return newAdminCasdoor(dir, client, local), local, mr
}

func TestAdminCasdoor_GetByUsernamePrefersLocal(t *testing.T) {
	dir := &fakeDirectory{}
	repo, local, _ := setupAdminCasdoor(t, dir)
	ctx := context.Background()

	require.NoError(t, local.Upsert(ctx, &models.AdminAccount{Username: "admin", DisplayName: "Main", IsMain: true}))

	admin, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Main", admin.DisplayName)
	assert.Zero(t, dir.getCalls)
}

func TestAdminCasdoor_GetByUsernameFallsBackAndCaches(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*casdoorsdk.User{
		"mrs.smith": {Name: "mrs.smith", DisplayName: "Mrs Smith", Avatar: "https://img/s.png"},
	}}
	repo, _, mr := setupAdminCasdoor(t, dir)
	ctx := context.Background()

	admin, err := repo.GetByUsername(ctx, "mrs.smith")
	require.NoError(t, err)
	assert.Equal(t, "Mrs Smith", admin.DisplayName)
	require.NotNil(t, admin.Avatar)
	assert.Equal(t, "https://img/s.png", *admin.Avatar)
	assert.Eventually(t, func() bool { return mr.Exists("admin:username:mrs.smith") }, time.Second, 10*time.Millisecond)

	_, err = repo.GetByUsername(ctx, "mrs.smith")
	require.NoError(t, err)
	assert.Equal(t, 1, dir.getCalls)
}

func TestAdminCasdoor_GetByUsernameUnknown(t *testing.T) {
	repo, _, _ := setupAdminCasdoor(t, &fakeDirectory{})

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestAdminCasdoor_VerifyToken(t *testing.T) {
	t.Run("admin is mirrored locally", func(t *testing.T) {
		dir := &fakeDirectory{claims: &casdoorsdk.Claims{User: casdoorsdk.User{Name: "teacher1", Type: "teacher"}}}
		repo, local, _ := setupAdminCasdoor(t, dir)
		ctx := context.Background()

		admin, err := repo.VerifyToken(ctx, "valid")
		require.NoError(t, err)
		assert.Equal(t, "teacher1", admin.Username)
		assert.Equal(t, "teacher1", admin.DisplayName)

		stored, err := local.GetByUsername(ctx, "teacher1")
		require.NoError(t, err)
		assert.False(t, stored.IsMain)
	})

	t.Run("non admin rejected", func(t *testing.T) {
		dir := &fakeDirectory{claims: &casdoorsdk.Claims{User: casdoorsdk.User{Name: "kid", Type: "normal-user"}}}
		repo, _, _ := setupAdminCasdoor(t, dir)

		_, err := repo.VerifyToken(context.Background(), "valid")
		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("bad token", func(t *testing.T) {
		repo, _, _ := setupAdminCasdoor(t, &fakeDirectory{})

		_, err := repo.VerifyToken(context.Background(), "forged")
		assert.Error(t, err)
	})
}
