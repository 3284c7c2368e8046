package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

func TestRedisRecordStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisRecordStore(client)
	ctx := context.Background()
	record := Record{SubjectID: "s1", Role: models.RoleStudent, Timestamp: time.Now().UTC().Truncate(time.Second)}

	require.NoError(t, store.Save(ctx, "tok", record, 10*time.Minute))
	assert.True(t, mr.Exists("session:tok"))
	assert.Equal(t, 10*time.Minute, mr.TTL("session:tok"))

	loaded, err := store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, record.SubjectID, loaded.SubjectID)
	assert.Equal(t, record.Role, loaded.Role)
	assert.True(t, record.Timestamp.Equal(loaded.Timestamp))

	t.Run("touch extends ttl", func(t *testing.T) {
		mr.FastForward(9 * time.Minute)
		require.NoError(t, store.Touch(ctx, "tok", 10*time.Minute))
		mr.FastForward(9 * time.Minute)
		_, err := store.Load(ctx, "tok")
		assert.NoError(t, err)
	})

	t.Run("expires", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		_, err := store.Load(ctx, "tok")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "tok2", record, time.Minute))
		require.NoError(t, store.Delete(ctx, "tok2"))
		_, err := store.Load(ctx, "tok2")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestMemoryRecordStore(t *testing.T) {
	store := NewMemoryRecordStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", Record{SubjectID: "admin", Role: models.RoleAdmin}, time.Minute))

	loaded, err := store.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, loaded.Role)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "tok")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
