package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stemsi/submission-portal/internal/validator"
)

// QuestionHandler serves the question bank and grades assessments.
type QuestionHandler struct {
	questionService *service.QuestionService
	scoringService  *service.ScoringService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, scoringService *service.ScoringService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		scoringService:  scoringService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/questions?category=
// Lists the questions of a role without their answer keys.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.ListForCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		failWithError(c, h.log, err, "Failed to fetch questions")
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"category":  model.CanonicalRole(c.Query("category")),
		"questions": questions,
	})
}

// ReplaceQuestions godoc
// PUT /api/v1/admin/questions
// Replaces the whole question set of a category.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	questions, err := h.questionService.ReplaceCategory(c.Request.Context(), req)
	if err != nil {
		failWithError(c, h.log, err, "Failed to import questions")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions, "count": len(questions)})
}

// CheckAssessment godoc
// POST /api/v1/assessment/check
// Grades answers against the bank and the current passing threshold.
func (h *QuestionHandler) CheckAssessment(c *gin.Context) {
	var req model.CheckAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	report, err := h.scoringService.Evaluate(c.Request.Context(), req.Answers)
	if err != nil {
		failWithError(c, h.log, err, "Failed to check assessment")
		return
	}
	response.Success(c, http.StatusOK, report)
}
