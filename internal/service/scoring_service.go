package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/model"
)

// ScoreReport is the graded result of an assessment.
type ScoreReport struct {
	TotalQuestions    int               `json:"totalQuestions"`
	CorrectCount      int               `json:"correctCount"`
	Percentage        float64           `json:"percentage"`
	Passed            bool              `json:"passed"`
	PassingPercentage float64           `json:"passingPercentage"`
	Details           []model.MCQAnswer `json:"details"`
}

// Score returns the aggregate in the shape a session records.
func (r *ScoreReport) Score() model.MCQScore {
	return model.MCQScore{
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectCount,
		Percentage:     r.Percentage,
	}
}

// ScoringService grades answers against the question bank.
type ScoringService struct {
	questions        QuestionStore
	thresholds       ThresholdReader
	defaultThreshold float64
	log              zerolog.Logger
}

// NewScoringService creates a new ScoringService.
func NewScoringService(questions QuestionStore, thresholds ThresholdReader, defaultThreshold float64, log zerolog.Logger) *ScoringService {
	return &ScoringService{
		questions:        questions,
		thresholds:       thresholds,
		defaultThreshold: defaultThreshold,
		log:              log.With().Str("component", "scoring_service").Logger(),
	}
}

// Evaluate grades every answer. Each question may be answered once and must exist.
func (s *ScoringService) Evaluate(ctx context.Context, answers []model.AnswerInput) (*ScoreReport, error) {
	if len(answers) == 0 {
		return nil, invalid("answers", "At least one answer is required")
	}

	ids := make([]uuid.UUID, 0, len(answers))
	seen := make(map[uuid.UUID]struct{}, len(answers))
	for i, a := range answers {
		id, err := uuid.Parse(a.QuestionID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("answers[%d].questionId", i), "Invalid question ID")
		}
		if _, dup := seen[id]; dup {
			return nil, invalid(fmt.Sprintf("answers[%d].questionId", i), "Question answered more than once")
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	report := &ScoreReport{
		TotalQuestions: len(answers),
		Details:        make([]model.MCQAnswer, 0, len(answers)),
	}
	for i, a := range answers {
		q, ok := questions[ids[i]]
		if !ok {
			return nil, invalid(fmt.Sprintf("answers[%d].questionId", i), "Unknown question")
		}
		correct := a.SelectedAnswer == q.CorrectAnswer
		if correct {
			report.CorrectCount++
		}
		report.Details = append(report.Details, model.MCQAnswer{
			QuestionID:     q.ID.String(),
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      correct,
		})
	}

	report.Percentage = math.Round(float64(report.CorrectCount) * 100 / float64(report.TotalQuestions))
	report.PassingPercentage = resolveThreshold(ctx, s.thresholds, s.defaultThreshold, s.log)
	report.Passed = report.Percentage >= report.PassingPercentage
	return report, nil
}
