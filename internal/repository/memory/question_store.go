package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/model"
)

// QuestionStore is an in-memory question bank.
type QuestionStore struct {
	mu         sync.RWMutex
	byCategory map[string][]model.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{byCategory: make(map[string][]model.Question)}
}

func (s *QuestionStore) ListByCategory(_ context.Context, category string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Question, 0, len(s.byCategory[category]))
	for _, q := range s.byCategory[category] {
		out = append(out, cloneQuestion(q))
	}
	return out, nil
}

func (s *QuestionStore) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]model.Question, len(ids))
	for _, qs := range s.byCategory {
		for _, q := range qs {
			if slices.Contains(ids, q.ID) {
				out[q.ID] = cloneQuestion(q)
			}
		}
	}
	return out, nil
}

func (s *QuestionStore) ReplaceCategory(_ context.Context, category string, questions []model.Question) error {
	stored := make([]model.Question, len(questions))
	created := time.Now().UTC()
	for i := range questions {
		questions[i].Category = category
		questions[i].CreatedAt = created
		stored[i] = cloneQuestion(questions[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCategory[category] = stored
	return nil
}

func cloneQuestion(q model.Question) model.Question {
	q.Options = slices.Clone(q.Options)
	return q
}
