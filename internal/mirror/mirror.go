// Package mirror keeps a client-side copy of the active exam session so a
// candidate can resume without asking the server. The server stays
// authoritative; a mirror is only ever overwritten from it, never merged back.
package mirror

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/model"
)

// ErrEmpty is returned by Load when nothing is stored.
var ErrEmpty = errors.New("mirror is empty")

// Snapshot is the mirrored session state.
type Snapshot struct {
	SessionID   uuid.UUID           `json:"sessionId"`
	CurrentStep int                 `json:"currentStep"`
	FormData    model.FormData      `json:"formData"`
	Status      model.SessionStatus `json:"status"`
	SavedAt     time.Time           `json:"savedAt"`
}

// FromSession builds a snapshot of s.
func FromSession(s *model.ExamSession, now time.Time) Snapshot {
	return Snapshot{
		SessionID:   s.ID,
		CurrentStep: s.CurrentStep,
		FormData:    s.FormData.Clone(),
		Status:      s.Status,
		SavedAt:     now,
	}
}

// Resumable reports whether the snapshot describes an unfinished attempt.
func (s *Snapshot) Resumable() bool {
	return s != nil && s.SessionID != uuid.Nil && s.Status == model.SessionStatusInProgress
}

// Store holds at most one snapshot.
type Store interface {
	// Load returns ErrEmpty when nothing is stored.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	// Clear is a no-op when nothing is stored.
	Clear(ctx context.Context) error
}
