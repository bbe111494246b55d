package model

import (
	"time"

	"github.com/google/uuid"
)

// Question difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a single multiple-choice question in the bank.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Category      string    `json:"category"`
	QuestionText  string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correctAnswer"`
	Difficulty    string    `json:"difficulty"`
	Points        int       `json:"points"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublicQuestion is the candidate-facing view of a question, without the key.
type PublicQuestion struct {
	ID           uuid.UUID `json:"id"`
	Category     string    `json:"category"`
	QuestionText string    `json:"question"`
	Options      []string  `json:"options"`
	Difficulty   string    `json:"difficulty"`
	Points       int       `json:"points"`
}

// Public strips the correct answer.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:           q.ID,
		Category:     q.Category,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Difficulty:   q.Difficulty,
		Points:       q.Points,
	}
}

// QuestionInput is one question in an import payload or seed file.
type QuestionInput struct {
	Question      string   `json:"question" yaml:"question" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" yaml:"options" binding:"required,min=2,max=10,dive,required,max=500"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer" binding:"min=0"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points        int      `json:"points" yaml:"points" binding:"omitempty,min=1,max=100"`
}

// ReplaceQuestionsRequest replaces every question of one category.
type ReplaceQuestionsRequest struct {
	Category  string          `json:"category" yaml:"category" binding:"required,min=1,max=100"`
	Questions []QuestionInput `json:"questions" yaml:"questions" binding:"required,min=1,dive"`
}

// AnswerInput is one answered question sent for scoring.
type AnswerInput struct {
	QuestionID     string `json:"questionId" binding:"required,uuid"`
	SelectedAnswer int    `json:"selectedAnswer" binding:"min=0"`
}

// CheckAssessmentRequest is the payload for scoring an assessment.
type CheckAssessmentRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required,min=1,max=200,dive"`
}
