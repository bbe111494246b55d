package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionStore_OnePerSession(t *testing.T) {
	ctx := context.Background()
	store := NewSubmissionStore()
	sessionID := uuid.New()

	require.NoError(t, store.Create(ctx, &model.Submission{ID: uuid.New(), SessionID: sessionID}))
	err := store.Create(ctx, &model.Submission{ID: uuid.New(), SessionID: sessionID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Equal(t, 1, store.Count())

	_, err = store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuestionStore_ReplaceAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()
	q1 := model.Question{ID: uuid.New(), QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: 1}
	q2 := model.Question{ID: uuid.New(), QuestionText: "HTTP 404?", Options: []string{"ok", "not found"}, CorrectAnswer: 1}

	require.NoError(t, store.ReplaceCategory(ctx, "Backend Developer", []model.Question{q1, q2}))

	list, err := store.ListByCategory(ctx, "Backend Developer")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, q1.ID, list[0].ID)
	assert.Equal(t, "Backend Developer", list[0].Category)

	list[0].Options[0] = "mutated"
	found, err := store.GetByIDs(ctx, []uuid.UUID{q1.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "3", found[q1.ID].Options[0])

	require.NoError(t, store.ReplaceCategory(ctx, "Backend Developer", []model.Question{q2}))
	list, err = store.ListByCategory(ctx, "Backend Developer")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := store.ListByCategory(ctx, "Nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSettingStore(t *testing.T) {
	ctx := context.Background()
	store := NewSettingStore(map[string]string{model.SettingMCQPassingPercentage: "60"})

	got, err := store.GetByKey(ctx, model.SettingMCQPassingPercentage)
	require.NoError(t, err)
	assert.Equal(t, "60", got.Value)

	require.NoError(t, store.Upsert(ctx, map[string]string{"a": "1", model.SettingMCQPassingPercentage: "70"}))
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Key)
	assert.Equal(t, "70", all[1].Value)

	_, err = store.GetByKey(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminStore(t *testing.T) {
	ctx := context.Background()
	store := NewAdminStore()

	a := &model.Admin{Email: "root@example.com", Name: "Root", PasswordHash: "x"}
	require.NoError(t, store.Create(ctx, a))
	assert.Equal(t, 1, a.ID)
	assert.ErrorIs(t, store.Create(ctx, &model.Admin{Email: "root@example.com"}), repository.ErrDuplicate)

	got, err := store.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Root", got.Name)

	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
