package mirror

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		SessionID:   uuid.MustParse("3f0b6c52-51c6-4c0e-9a51-6f1f0f3e9b11"),
		CurrentStep: 2,
		FormData: model.FormData{
			FullName: model.StrPtr("Ana"),
			Email:    model.StrPtr("ana@example.com"),
		},
		Status:  model.SessionStatusInProgress,
		SavedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrEmpty)
	require.NoError(t, store.Clear(ctx), "clearing an empty mirror")

	snap := sampleSnapshot()
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, got.SessionID)
	assert.Equal(t, 2, got.CurrentStep)
	assert.Equal(t, "Ana", model.Str(got.FormData.FullName))
	assert.True(t, got.Resumable())

	snap.Status = model.SessionStatusFailed
	require.NoError(t, store.Save(ctx, snap))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, got.Resumable())

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewFileStore(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	exerciseStore(t, NewRedisStore(rdb, "client-1", 0))
}

func TestRedisStore_KeysAreIsolatedAndExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	a := NewRedisStore(rdb, "a", time.Hour)
	b := NewRedisStore(rdb, "b", time.Hour)
	require.NoError(t, a.Save(ctx, sampleSnapshot()))

	_, err := b.Load(ctx)
	require.ErrorIs(t, err, ErrEmpty)
	assert.True(t, mr.Exists("portal:client:a:exam_session"))

	mr.FastForward(2 * time.Hour)
	_, err = a.Load(ctx)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestFromSession(t *testing.T) {
	s := &model.ExamSession{
		ID:          uuid.New(),
		CurrentStep: 3,
		FormData:    model.FormData{Role: model.StrPtr("backend")},
		Status:      model.SessionStatusInProgress,
	}
	snap := FromSession(s, time.Now())
	*s.FormData.Role = "changed"

	assert.Equal(t, s.ID, snap.SessionID)
	assert.Equal(t, 3, snap.CurrentStep)
	assert.Equal(t, "backend", model.Str(snap.FormData.Role), "snapshot is a copy")
}
