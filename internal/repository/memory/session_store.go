// Package memory holds in-process implementations of the repository
// contracts, used by the memory store driver and by tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/identity"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// SessionStore is an in-memory exam session store. Stored values are cloned
// on the way in and out.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*model.ExamSession
	byIdentity  map[string]uuid.UUID
	submissions *SubmissionStore
}

func NewSessionStore(submissions *SubmissionStore) *SessionStore {
	return &SessionStore{
		sessions:    make(map[uuid.UUID]*model.ExamSession),
		byIdentity:  make(map[string]uuid.UUID),
		submissions: submissions,
	}
}

func (s *SessionStore) Create(_ context.Context, session *model.ExamSession) error {
	key := session.Identity().Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byIdentity[key]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.sessions[session.ID]; ok {
		return repository.ErrDuplicate
	}
	s.sessions[session.ID] = session.Clone()
	s.byIdentity[key] = session.ID
	return nil
}

func (s *SessionStore) GetByIdentity(_ context.Context, email, phone string) (*model.ExamSession, error) {
	key := identity.Identity{Email: email, Phone: phone}.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentity[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.sessions[id].Clone(), nil
}

func (s *SessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *SessionStore) SaveProgress(_ context.Context, id uuid.UUID, step int, patch model.FormData) (*model.ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := session.ApplyProgress(step, patch, time.Now().UTC()); err != nil {
		if errors.Is(err, model.ErrSessionTerminal) {
			return nil, repository.ErrStatusChanged
		}
		return nil, err
	}
	return session.Clone(), nil
}

// Complete replaces the stored session with its terminal state, recording sub
// first when present. The form data is merged over what is stored so progress
// saved after session was loaded survives. Nothing is written unless the
// stored session is still in_progress.
func (s *SessionStore) Complete(ctx context.Context, session *model.ExamSession, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != model.SessionStatusInProgress {
		return repository.ErrStatusChanged
	}

	if sub != nil {
		if err := s.submissions.Create(ctx, sub); err != nil {
			return err
		}
	}
	next := session.Clone()
	formData := stored.FormData.Clone()
	formData.Merge(next.FormData)
	next.FormData = formData
	s.sessions[session.ID] = next
	return nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
