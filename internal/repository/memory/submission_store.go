package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// SubmissionStore is an in-memory submission store.
type SubmissionStore struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]model.Submission
	bySession map[uuid.UUID]uuid.UUID
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		items:     make(map[uuid.UUID]model.Submission),
		bySession: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *SubmissionStore) Create(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[sub.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.bySession[sub.SessionID]; ok {
		return repository.ErrDuplicate
	}
	c := *sub
	c.MCQAnswers = slices.Clone(sub.MCQAnswers)
	s.items[sub.ID] = c
	s.bySession[sub.SessionID] = sub.ID
	return nil
}

func (s *SubmissionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sub.MCQAnswers = slices.Clone(sub.MCQAnswers)
	return &sub, nil
}

// Count returns the number of stored submissions.
func (s *SubmissionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
