package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuestions(t *testing.T, store *memory.QuestionStore, n int) []model.Question {
	t.Helper()
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "question",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: i % 3,
			Difficulty:    model.DifficultyEasy,
			Points:        1,
		}
	}
	require.NoError(t, store.ReplaceCategory(context.Background(), "Backend Developer", qs))
	return qs
}

func TestEvaluate_GradesAndRounds(t *testing.T) {
	store := memory.NewQuestionStore()
	qs := seedQuestions(t, store, 3)
	svc := NewScoringService(store, fixedThreshold{value: 60}, 50, zerolog.Nop())

	report, err := svc.Evaluate(context.Background(), []model.AnswerInput{
		{QuestionID: qs[0].ID.String(), SelectedAnswer: qs[0].CorrectAnswer},
		{QuestionID: qs[1].ID.String(), SelectedAnswer: qs[1].CorrectAnswer},
		{QuestionID: qs[2].ID.String(), SelectedAnswer: (qs[2].CorrectAnswer + 1) % 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 2, report.CorrectCount)
	assert.Equal(t, 67.0, report.Percentage)
	assert.True(t, report.Passed)
	assert.Equal(t, 60.0, report.PassingPercentage)
	require.Len(t, report.Details, 3)
	assert.True(t, report.Details[0].IsCorrect)
	assert.False(t, report.Details[2].IsCorrect)
	assert.Equal(t, model.MCQScore{TotalQuestions: 3, CorrectAnswers: 2, Percentage: 67}, report.Score())
}

func TestEvaluate_Rejects(t *testing.T) {
	store := memory.NewQuestionStore()
	qs := seedQuestions(t, store, 2)
	svc := NewScoringService(store, nil, 50, zerolog.Nop())
	ctx := context.Background()
	var verr *ValidationError

	_, err := svc.Evaluate(ctx, nil)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Evaluate(ctx, []model.AnswerInput{{QuestionID: "not-a-uuid"}})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Evaluate(ctx, []model.AnswerInput{{QuestionID: uuid.NewString()}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unknown question", verr.Message)

	dup := qs[0].ID.String()
	_, err = svc.Evaluate(ctx, []model.AnswerInput{{QuestionID: dup}, {QuestionID: dup}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "answers[1].questionId", verr.Field)
}

func TestEvaluate_DefaultThreshold(t *testing.T) {
	store := memory.NewQuestionStore()
	qs := seedQuestions(t, store, 2)
	svc := NewScoringService(store, nil, 50, zerolog.Nop())

	report, err := svc.Evaluate(context.Background(), []model.AnswerInput{
		{QuestionID: qs[0].ID.String(), SelectedAnswer: qs[0].CorrectAnswer},
		{QuestionID: qs[1].ID.String(), SelectedAnswer: (qs[1].CorrectAnswer + 1) % 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, report.Percentage)
	assert.True(t, report.Passed)
}
