package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedSettings(t *testing.T, initial map[string]string) (*SettingService, *memory.SettingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memory.NewSettingStore(initial)
	return NewSettingService(store, rdb, time.Minute, zerolog.Nop()), store, mr
}

func TestPassingPercentage_CachesInRedis(t *testing.T) {
	ctx := context.Background()
	svc, store, mr := newCachedSettings(t, map[string]string{model.SettingMCQPassingPercentage: "65"})

	v, err := svc.PassingPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 65.0, v)

	key := config.CacheKey.SettingKey(model.SettingMCQPassingPercentage)
	cached, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "65", cached)
	assert.Equal(t, time.Minute, mr.TTL(key))

	// a write that bypasses the service is hidden until the entry expires
	require.NoError(t, store.Upsert(ctx, map[string]string{model.SettingMCQPassingPercentage: "80"}))
	v, err = svc.PassingPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 65.0, v)

	mr.FastForward(time.Minute + time.Second)
	v, err = svc.PassingPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80.0, v)
}

func TestUpdateSettings_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := newCachedSettings(t, map[string]string{model.SettingMCQPassingPercentage: "50"})

	_, err := svc.PassingPercentage(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(config.CacheKey.SettingKey(model.SettingMCQPassingPercentage)))

	require.NoError(t, svc.UpdateSettings(ctx, map[string]string{model.SettingMCQPassingPercentage: "70"}))
	assert.False(t, mr.Exists(config.CacheKey.SettingKey(model.SettingMCQPassingPercentage)))

	v, err := svc.PassingPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 70.0, v)
}

func TestUpdateSettings_RejectsBadPercentage(t *testing.T) {
	svc, _, _ := newCachedSettings(t, nil)

	for _, raw := range []string{"abc", "-1", "100.5"} {
		err := svc.UpdateSettings(context.Background(), map[string]string{model.SettingMCQPassingPercentage: raw})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, raw)
	}
}

func TestPassingPercentage_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewSettingService(memory.NewSettingStore(nil), nil, 0, zerolog.Nop())
	_, err := svc.PassingPercentage(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	svc = NewSettingService(memory.NewSettingStore(map[string]string{model.SettingMCQPassingPercentage: "lots"}), nil, 0, zerolog.Nop())
	_, err = svc.PassingPercentage(ctx)
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestPassingPercentage_RedisDownFallsBackToStore(t *testing.T) {
	// nothing listens on the discard port
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:9", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	store := memory.NewSettingStore(map[string]string{model.SettingMCQPassingPercentage: "55"})
	svc := NewSettingService(store, rdb, time.Minute, zerolog.Nop())

	v, err := svc.PassingPercentage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, v)
}

func TestGetPublicSettings(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingService(memory.NewSettingStore(map[string]string{
		model.SettingMCQPassingPercentage: "60",
		"smtp_password":                   "secret",
	}), nil, 0, zerolog.Nop())

	public, err := svc.GetPublicSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{model.SettingMCQPassingPercentage: "60"}, public)

	all, err := svc.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	empty := NewSettingService(memory.NewSettingStore(nil), nil, 0, zerolog.Nop())
	public, err = empty.GetPublicSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)
}

func TestResolveThreshold(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()

	assert.Equal(t, 50.0, resolveThreshold(ctx, nil, 50, log))
	assert.Equal(t, 75.0, resolveThreshold(ctx, fixedThreshold{value: 75}, 50, log))
	assert.Equal(t, 50.0, resolveThreshold(ctx, fixedThreshold{err: repository.ErrNotFound}, 50, log))
	assert.Equal(t, 40.0, resolveThreshold(ctx, fixedThreshold{err: errors.New("boom")}, 40, log))
}
