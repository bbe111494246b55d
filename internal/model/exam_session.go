package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/identity"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusPassed     SessionStatus = "passed"
	SessionStatusFailed     SessionStatus = "failed"
)

// Wizard steps are numbered 1 through MaxStep.
const (
	FirstStep = 1
	MaxStep   = 4
)

var (
	// ErrSessionTerminal is returned when a terminal session is asked to change.
	ErrSessionTerminal = errors.New("session already completed")
	// ErrInvalidStep is returned for a wizard step outside [FirstStep, MaxStep].
	ErrInvalidStep = fmt.Errorf("current step must be between %d and %d", FirstStep, MaxStep)
	// ErrInvalidTransition is returned for a status change the machine does not allow.
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusPassed, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further mutation is permitted.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusPassed, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the machine allows s -> next.
// Only in_progress may move, and only to a terminal status.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusInProgress:
		return next == SessionStatusPassed || next == SessionStatusFailed
	case SessionStatusPassed, SessionStatusFailed:
		return false
	default:
		return false
	}
}

// ValidStep reports whether step is a wizard step.
func ValidStep(step int) bool {
	return step >= FirstStep && step <= MaxStep
}

// MCQScore is the aggregate result of the assessment.
type MCQScore struct {
	TotalQuestions int     `json:"totalQuestions" binding:"min=0"`
	CorrectAnswers int     `json:"correctAnswers" binding:"min=0"`
	Percentage     float64 `json:"percentage" binding:"gte=0,lte=100"`
}

// Validate checks the internal consistency of a score.
func (s MCQScore) Validate() error {
	switch {
	case s.TotalQuestions < 0 || s.CorrectAnswers < 0:
		return errors.New("question counts must not be negative")
	case s.CorrectAnswers > s.TotalQuestions:
		return errors.New("correct answers exceed total questions")
	case s.Percentage < 0 || s.Percentage > 100:
		return errors.New("percentage must be between 0 and 100")
	}
	return nil
}

// MCQAnswer is the per-question detail recorded with a submission.
type MCQAnswer struct {
	QuestionID     string `json:"questionId" binding:"required,max=64"`
	SelectedAnswer int    `json:"selectedAnswer" binding:"min=0"`
	IsCorrect      bool   `json:"isCorrect"`
}

// ExamSession is one candidate's single attempt, keyed by normalized identity.
type ExamSession struct {
	ID           uuid.UUID     `json:"sessionId"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	CurrentStep  int           `json:"currentStep"`
	FormData     FormData      `json:"formData"`
	MCQScore     *MCQScore     `json:"mcqScore,omitempty"`
	Status       SessionStatus `json:"status"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	SubmissionID *uuid.UUID    `json:"submissionId,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// NewExamSession builds a fresh in_progress session on step 1 whose form data
// is seeded with the normalized identity.
func NewExamSession(id uuid.UUID, who identity.Identity, now time.Time) *ExamSession {
	email, phone := who.Email, who.Phone
	return &ExamSession{
		ID:          id,
		Email:       who.Email,
		Phone:       who.Phone,
		CurrentStep: FirstStep,
		FormData:    FormData{Email: &email, Phone: &phone},
		Status:      SessionStatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Identity returns the session's normalized identity.
func (s *ExamSession) Identity() identity.Identity {
	return identity.Identity{Email: s.Email, Phone: s.Phone}
}

// ApplyProgress moves the step cursor and shallow-merges patch into the form data.
func (s *ExamSession) ApplyProgress(step int, patch FormData, now time.Time) error {
	if s.Status.IsTerminal() {
		return ErrSessionTerminal
	}
	if !ValidStep(step) {
		return ErrInvalidStep
	}
	s.CurrentStep = step
	s.FormData.Merge(patch)
	s.UpdatedAt = now
	return nil
}

// Complete moves the session to its terminal status. The score, completion
// time and submission reference are set together; submissionID must be
// non-nil exactly when outcome is passed.
func (s *ExamSession) Complete(outcome SessionStatus, score MCQScore, submissionID *uuid.UUID, now time.Time) error {
	if s.Status.IsTerminal() {
		return ErrSessionTerminal
	}
	if !s.Status.CanTransitionTo(outcome) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, outcome)
	}
	if (outcome == SessionStatusPassed) != (submissionID != nil) {
		return fmt.Errorf("%w: submission reference must accompany a pass", ErrInvalidTransition)
	}

	completedAt := now
	s.Status = outcome
	s.MCQScore = &score
	s.CompletedAt = &completedAt
	s.SubmissionID = submissionID
	s.UpdatedAt = now
	return nil
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (s *ExamSession) Clone() *ExamSession {
	if s == nil {
		return nil
	}
	c := *s
	c.FormData = s.FormData.Clone()
	c.MCQScore = clonePtr(s.MCQScore)
	c.CompletedAt = clonePtr(s.CompletedAt)
	c.SubmissionID = clonePtr(s.SubmissionID)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
