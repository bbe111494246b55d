package memory

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// AdminStore is an in-memory admin table keyed by email.
type AdminStore struct {
	mu     sync.RWMutex
	nextID int
	admins map[string]model.Admin
}

func NewAdminStore() *AdminStore {
	return &AdminStore{admins: make(map[string]model.Admin)}
}

func (s *AdminStore) Create(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[a.Email]; ok {
		return repository.ErrDuplicate
	}
	s.nextID++
	now := time.Now().UTC()
	a.ID, a.CreatedAt, a.UpdatedAt = s.nextID, now, now
	s.admins[a.Email] = *a
	return nil
}

func (s *AdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}
