package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/model"
)

// QuestionStore persists the MCQ question bank.
type QuestionStore interface {
	ListByCategory(ctx context.Context, category string) ([]model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error)
	ReplaceCategory(ctx context.Context, category string, questions []model.Question) error
}

// QuestionService serves the question bank by category.
type QuestionService struct {
	store QuestionStore
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store QuestionStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store: store,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// ListForCategory returns the candidate-facing questions for a role. The role
// may be any alias CanonicalRole understands.
func (s *QuestionService) ListForCategory(ctx context.Context, category string) ([]model.PublicQuestion, error) {
	canonical := model.CanonicalRole(category)
	if canonical == "" {
		return nil, invalid("category", "Category is required")
	}

	questions, err := s.store.ListByCategory(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	public := make([]model.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return public, nil
}

// ReplaceCategory swaps the whole question set of a category.
func (s *QuestionService) ReplaceCategory(ctx context.Context, req model.ReplaceQuestionsRequest) ([]model.Question, error) {
	category := model.CanonicalRole(req.Category)
	if category == "" {
		return nil, invalid("category", "Category is required")
	}
	if len(req.Questions) == 0 {
		return nil, invalid("questions", "At least one question is required")
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, in := range req.Questions {
		if strings.TrimSpace(in.Question) == "" {
			return nil, invalid(fmt.Sprintf("questions[%d].question", i), "Question text is required")
		}
		if len(in.Options) < 2 {
			return nil, invalid(fmt.Sprintf("questions[%d].options", i), "At least two options are required")
		}
		if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(in.Options) {
			return nil, invalid(fmt.Sprintf("questions[%d].correctAnswer", i), "Correct answer must index one of the options")
		}

		difficulty := in.Difficulty
		if difficulty == "" {
			difficulty = model.DifficultyMedium
		}
		points := in.Points
		if points == 0 {
			points = 1
		}

		questions = append(questions, model.Question{
			ID:            uuid.New(),
			Category:      category,
			QuestionText:  strings.TrimSpace(in.Question),
			Options:       in.Options,
			CorrectAnswer: in.CorrectAnswer,
			Difficulty:    difficulty,
			Points:        points,
		})
	}

	if err := s.store.ReplaceCategory(ctx, category, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	s.log.Info().Str("category", category).Int("count", len(questions)).Msg("question bank replaced")
	return questions, nil
}
