package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/identity"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// SessionStore persists exam sessions, one per normalized identity.
type SessionStore interface {
	// Create returns repository.ErrDuplicate when the identity already has a session.
	Create(ctx context.Context, s *model.ExamSession) error
	GetByIdentity(ctx context.Context, email, phone string) (*model.ExamSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	// SaveProgress returns repository.ErrStatusChanged when the session is terminal.
	SaveProgress(ctx context.Context, id uuid.UUID, step int, patch model.FormData) (*model.ExamSession, error)
	// Complete writes a terminal session and, when sub is non-nil, its
	// submission, atomically and only if the stored session is in_progress.
	Complete(ctx context.Context, s *model.ExamSession, sub *model.Submission) error
}

// StartResult is the outcome of starting or resuming a session.
type StartResult struct {
	Session          *model.ExamSession
	IsNew            bool
	AlreadyCompleted bool
}

// SubmitResult is the outcome of the final submit.
type SubmitResult struct {
	Session           *model.ExamSession
	IsPassing         bool
	SubmissionID      *uuid.UUID
	Score             model.MCQScore
	PassingPercentage float64
}

// FailResult is the outcome of locking a session after a failed assessment.
type FailResult struct {
	Session          *model.ExamSession
	AlreadyCompleted bool
}

// AttemptStatus reports whether an identity has a session and whether it can be resumed.
type AttemptStatus struct {
	Attempted   bool                 `json:"attempted"`
	Status      *model.SessionStatus `json:"status,omitempty"`
	SessionID   *uuid.UUID           `json:"sessionId,omitempty"`
	CurrentStep *int                 `json:"currentStep,omitempty"`
	CanResume   *bool                `json:"canResume,omitempty"`
}

// ExamSessionService drives a candidate's single attempt from start to its
// terminal outcome.
type ExamSessionService struct {
	store            SessionStore
	thresholds       ThresholdReader
	defaultThreshold float64
	log              zerolog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewExamSessionService creates a new ExamSessionService. defaultThreshold is
// used whenever thresholds cannot supply a value.
func NewExamSessionService(store SessionStore, thresholds ThresholdReader, defaultThreshold float64, log zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		store:            store,
		thresholds:       thresholds,
		defaultThreshold: defaultThreshold,
		log:              log.With().Str("component", "exam_session_service").Logger(),
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.New,
	}
}

// Start creates a session for a new identity or returns the existing one.
// An existing terminal session is reported as already completed and left untouched.
func (s *ExamSessionService) Start(ctx context.Context, email, phone string) (*StartResult, error) {
	who := identity.Normalize(email, phone)
	if err := who.Validate(); err != nil {
		if errors.Is(err, identity.ErrInvalidPhone) {
			return nil, invalid("phone", "Phone number must be exactly 10 digits")
		}
		return nil, invalid("email", "A valid email is required")
	}

	existing, err := s.store.GetByIdentity(ctx, who.Email, who.Phone)
	switch {
	case err == nil:
		return resumeResult(existing), nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find session: %w", err)
	}

	session := model.NewExamSession(s.newID(), who, s.now())
	if err := s.store.Create(ctx, session); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create session: %w", err)
		}
		// Lost the creation race: the winner's session is ours to resume.
		existing, fetchErr := s.store.GetByIdentity(ctx, who.Email, who.Phone)
		if fetchErr != nil {
			s.log.Error().Err(fetchErr).Str("email", who.Email).Msg("concurrent start detected, but fetch failed")
			return nil, fmt.Errorf("%w: %v", ErrDuplicateSession, fetchErr)
		}
		s.log.Info().Str("session_id", existing.ID.String()).Msg("concurrent start resolved as resume")
		return resumeResult(existing), nil
	}

	s.log.Info().Str("session_id", session.ID.String()).Msg("session started")
	return &StartResult{Session: session, IsNew: true}, nil
}

func resumeResult(session *model.ExamSession) *StartResult {
	return &StartResult{Session: session, AlreadyCompleted: session.Status.IsTerminal()}
}

// GetSession returns a session by ID.
func (s *ExamSessionService) GetSession(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err, "get session")
	}
	return session, nil
}

// SaveProgress moves the step cursor and shallow-merges patch into the form data.
func (s *ExamSessionService) SaveProgress(ctx context.Context, id uuid.UUID, step int, patch model.FormData) (*model.ExamSession, error) {
	if !model.ValidStep(step) {
		return nil, invalid("currentStep", model.ErrInvalidStep.Error())
	}

	session, err := s.store.SaveProgress(ctx, id, step, patch)
	if err != nil {
		return nil, s.mapStoreErr(err, "save progress")
	}
	return session, nil
}

// SubmitExam scores the attempt against the current threshold and moves the
// session to its terminal status. A pass records exactly one submission; a
// fail records none.
func (s *ExamSessionService) SubmitExam(ctx context.Context, id uuid.UUID, final model.FormData, answers []model.MCQAnswer, score *model.MCQScore) (*SubmitResult, error) {
	if score == nil {
		return nil, invalid("mcqScore", "MCQ score is required")
	}
	if err := score.Validate(); err != nil {
		return nil, invalid("mcqScore", err.Error())
	}

	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err, "get session")
	}
	if session.Status.IsTerminal() {
		return nil, ErrSessionCompleted
	}

	threshold := resolveThreshold(ctx, s.thresholds, s.defaultThreshold, s.log)
	isPassing := score.Percentage >= threshold
	now := s.now()

	session.FormData.Merge(final)

	var (
		sub          *model.Submission
		submissionID *uuid.UUID
		outcome      = model.SessionStatusFailed
	)
	if isPassing {
		subID := s.newID()
		submissionID = &subID
		outcome = model.SessionStatusPassed
		sub = model.NewSubmission(subID, session, answers, *score, now)
	}

	if err := session.Complete(outcome, *score, submissionID, now); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if err := s.store.Complete(ctx, session, sub); err != nil {
		return nil, s.mapStoreErr(err, "persist submit")
	}

	ev := s.log.Info().
		Str("session_id", session.ID.String()).
		Float64("percentage", score.Percentage).
		Float64("threshold", threshold).
		Str("status", string(session.Status))
	if submissionID != nil {
		ev = ev.Str("submission_id", submissionID.String())
	}
	ev.Msg("exam submitted")

	return &SubmitResult{
		Session:           session,
		IsPassing:         isPassing,
		SubmissionID:      submissionID,
		Score:             *score,
		PassingPercentage: threshold,
	}, nil
}

// MarkAssessmentFailed locks an in_progress session as failed without a
// submission. A terminal session is returned unchanged with AlreadyCompleted set,
// so the call is safe to repeat. A nil score is recorded as zero.
func (s *ExamSessionService) MarkAssessmentFailed(ctx context.Context, id uuid.UUID, score *model.MCQScore) (*FailResult, error) {
	var recorded model.MCQScore
	if score != nil {
		if err := score.Validate(); err != nil {
			return nil, invalid("mcqScore", err.Error())
		}
		recorded = *score
	}

	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err, "get session")
	}
	if session.Status.IsTerminal() {
		return &FailResult{Session: session, AlreadyCompleted: true}, nil
	}

	if err := session.Complete(model.SessionStatusFailed, recorded, nil, s.now()); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if err := s.store.Complete(ctx, session, nil); err != nil {
		if !errors.Is(err, repository.ErrStatusChanged) {
			return nil, s.mapStoreErr(err, "persist fail")
		}
		// Completed concurrently; report what actually landed.
		current, getErr := s.store.GetByID(ctx, id)
		if getErr != nil {
			return nil, s.mapStoreErr(getErr, "get session")
		}
		return &FailResult{Session: current, AlreadyCompleted: true}, nil
	}

	s.log.Info().Str("session_id", session.ID.String()).Float64("percentage", recorded.Percentage).Msg("assessment failed, session locked")
	return &FailResult{Session: session}, nil
}

// CheckAttemptStatus reports whether an identity has already attempted the exam.
// The phone length is not enforced; a malformed phone simply matches nothing.
func (s *ExamSessionService) CheckAttemptStatus(ctx context.Context, email, phone string) (*AttemptStatus, error) {
	who := identity.Normalize(email, phone)
	if who.Email == "" {
		return nil, invalid("email", "Email and phone are required")
	}
	if who.Phone == "" {
		return nil, invalid("phone", "Email and phone are required")
	}

	session, err := s.store.GetByIdentity(ctx, who.Email, who.Phone)
	if errors.Is(err, repository.ErrNotFound) {
		return &AttemptStatus{Attempted: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	canResume := session.Status == model.SessionStatusInProgress
	return &AttemptStatus{
		Attempted:   true,
		Status:      &session.Status,
		SessionID:   &session.ID,
		CurrentStep: &session.CurrentStep,
		CanResume:   &canResume,
	}, nil
}

func (s *ExamSessionService) mapStoreErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repository.ErrStatusChanged):
		return ErrSessionCompleted
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
