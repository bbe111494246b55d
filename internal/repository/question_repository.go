package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/submission-portal/internal/model"
)

// QuestionRepository handles MCQ question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, category, question_text, options, correct_answer, difficulty, points, created_at`

// ListByCategory retrieves every question of a category in insertion order.
func (r *QuestionRepository) ListByCategory(ctx context.Context, category string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM mcq_questions WHERE category = $1 ORDER BY position, id`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Difficulty, &q.Points, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByIDs retrieves the questions with the given IDs, keyed by ID. Unknown IDs are absent.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM mcq_questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.Difficulty, &q.Points, &q.CreatedAt); err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

// ReplaceCategory swaps every question of a category for questions, atomically.
func (r *QuestionRepository) ReplaceCategory(ctx context.Context, category string, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM mcq_questions WHERE category = $1`, category); err != nil {
		return err
	}
	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO mcq_questions (id, category, question_text, options, correct_answer, difficulty, points, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING created_at`,
			q.ID, category, q.QuestionText, q.Options, q.CorrectAnswer, q.Difficulty, q.Points, i,
		).Scan(&q.CreatedAt)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}
