package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/submission-portal/internal/model"
)

const sessionColumns = `id, email, phone, current_step, form_data, mcq_score, status,
	completed_at, submission_id, created_at, updated_at`

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool        *pgxpool.Pool
	submissions *SubmissionRepository
}

// NewExamSessionRepository creates a new ExamSessionRepository. Submissions are
// written through submissions inside the completing transaction.
func NewExamSessionRepository(pool *pgxpool.Pool, submissions *SubmissionRepository) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool, submissions: submissions}
}

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	var (
		s         model.ExamSession
		formData  []byte
		scoreData []byte
	)
	err := row.Scan(&s.ID, &s.Email, &s.Phone, &s.CurrentStep, &formData, &scoreData, &s.Status,
		&s.CompletedAt, &s.SubmissionID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &s.FormData); err != nil {
			return nil, fmt.Errorf("decode form_data: %w", err)
		}
	}
	if len(scoreData) > 0 {
		s.MCQScore = &model.MCQScore{}
		if err := json.Unmarshal(scoreData, s.MCQScore); err != nil {
			return nil, fmt.Errorf("decode mcq_score: %w", err)
		}
	}
	return &s, nil
}

// Create inserts a new in_progress session. Returns ErrDuplicate when a
// session already exists for the same identity.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	formData, err := json.Marshal(s.FormData)
	if err != nil {
		return fmt.Errorf("encode form_data: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (id, email, phone, current_step, form_data, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $7)
		 ON CONFLICT (email, phone) DO NOTHING
		 RETURNING created_at`,
		s.ID, s.Email, s.Phone, s.CurrentStep, formData, s.Status, s.CreatedAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicate
		}
		return mapErr(err)
	}
	s.UpdatedAt = s.CreatedAt
	return nil
}

// GetByIdentity retrieves the session for a normalized (email, phone) pair.
func (r *ExamSessionRepository) GetByIdentity(ctx context.Context, email, phone string) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE email = $1 AND phone = $2`,
		email, phone))
}

// GetByID retrieves a session by its ID.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return getSession(ctx, r.pool, id)
}

func getSession(ctx context.Context, q querier, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// SaveProgress moves the step cursor and merges patch into form_data in one
// statement, so concurrent saves never drop each other's keys. Only
// in_progress sessions are touched.
func (r *ExamSessionRepository) SaveProgress(ctx context.Context, id uuid.UUID, step int, patch model.FormData) (*model.ExamSession, error) {
	patchData, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode form_data: %w", err)
	}

	s, err := scanSession(r.pool.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET current_step = $2, form_data = form_data || $3::jsonb, updated_at = NOW()
		 WHERE id = $1 AND status = $4
		 RETURNING `+sessionColumns,
		id, step, patchData, model.SessionStatusInProgress))
	if errors.Is(err, ErrNotFound) {
		return nil, r.explainMiss(ctx, r.pool, id)
	}
	return s, err
}

// Complete persists a session's terminal state. When sub is non-nil the
// submission is inserted in the same transaction, so a pass never exists
// without its record.
func (r *ExamSessionRepository) Complete(ctx context.Context, s *model.ExamSession, sub *model.Submission) error {
	formData, err := json.Marshal(s.FormData)
	if err != nil {
		return fmt.Errorf("encode form_data: %w", err)
	}
	scoreData, err := json.Marshal(s.MCQScore)
	if err != nil {
		return fmt.Errorf("encode mcq_score: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if sub != nil {
		if err := r.submissions.create(ctx, tx, sub); err != nil {
			if errors.Is(err, ErrDuplicate) {
				// the session was completed by a concurrent submit
				return r.explainMiss(ctx, r.pool, s.ID)
			}
			return fmt.Errorf("create submission: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, mcq_score = $3::jsonb, completed_at = $4, submission_id = $5,
		     form_data = form_data || $6::jsonb, current_step = $7, updated_at = $8
		 WHERE id = $1 AND status = $9`,
		s.ID, s.Status, scoreData, s.CompletedAt, s.SubmissionID,
		formData, s.CurrentStep, s.UpdatedAt, model.SessionStatusInProgress)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMiss(ctx, tx, s.ID)
	}

	return tx.Commit(ctx)
}

// explainMiss tells a missing session apart from one that already left in_progress.
func (r *ExamSessionRepository) explainMiss(ctx context.Context, q querier, id uuid.UUID) error {
	if _, err := getSession(ctx, q, id); err != nil {
		return err
	}
	return ErrStatusChanged
}
