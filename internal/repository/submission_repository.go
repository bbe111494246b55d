package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/submission-portal/internal/model"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts a submission on its own.
func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return r.create(ctx, r.pool, sub)
}

func (r *SubmissionRepository) create(ctx context.Context, q querier, sub *model.Submission) error {
	personal, err := json.Marshal(sub.PersonalInfo)
	if err != nil {
		return err
	}
	project, err := json.Marshal(sub.ProjectDetails)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(sub.MCQAnswers)
	if err != nil {
		return err
	}
	score, err := json.Marshal(sub.MCQScore)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO submissions (id, session_id, personal_info, project_details, mcq_answers, mcq_score, status, submitted_at, created_at)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6::jsonb, $7, $8, $9)`,
		sub.ID, sub.SessionID, personal, project, answers, score, sub.Status, sub.SubmittedAt, sub.CreatedAt)
	return mapErr(err)
}

// GetByID retrieves a submission by its ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var (
		sub                               model.Submission
		personal, project, answers, score []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, personal_info, project_details, mcq_answers, mcq_score, status, submitted_at, created_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.SessionID, &personal, &project, &answers, &score, &sub.Status, &sub.SubmittedAt, &sub.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}

	for _, f := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"personal_info", personal, &sub.PersonalInfo},
		{"project_details", project, &sub.ProjectDetails},
		{"mcq_answers", answers, &sub.MCQAnswers},
		{"mcq_score", score, &sub.MCQScore},
	} {
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return &sub, nil
}
