package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stemsi/submission-portal/internal/validator"
)

// Candidate-facing outcome messages.
const (
	msgAlreadyPassed    = "You have already passed and submitted the exam."
	msgAlreadyAttempted = "You have already attempted this exam."
	msgPassed           = "Congratulations! You have passed the exam."
	msgNotPassed        = "Unfortunately, you did not pass the exam."
	msgAssessmentFailed = "Assessment failed. You cannot retake the assessment."
	msgAlreadyCompleted = "Session was already completed"
)

// SessionHandler exposes the exam session workflow.
type SessionHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.ExamSessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// sessionView is the resumable part of a session returned by start.
type sessionView struct {
	SessionID   uuid.UUID           `json:"sessionId"`
	CurrentStep int                 `json:"currentStep"`
	FormData    model.FormData      `json:"formData"`
	Status      model.SessionStatus `json:"status"`
}

// sessionID parses the :sessionId path parameter. A malformed ID cannot name
// any session, so it is reported as not found.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, "Session not found")
		return uuid.Nil, false
	}
	return id, true
}

// StartSession godoc
// POST /api/v1/session/start
// Starts a session for a new identity or resumes the existing one.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	res, err := h.sessionService.Start(c.Request.Context(), req.Email, req.Phone)
	if err != nil {
		failWithError(c, h.log, err, "Failed to start session")
		return
	}

	if res.AlreadyCompleted {
		message := msgAlreadyAttempted
		if res.Session.Status == model.SessionStatusPassed {
			message = msgAlreadyPassed
		}
		response.Success(c, http.StatusOK, gin.H{
			"alreadyCompleted": true,
			"status":           res.Session.Status,
			"message":          message,
		})
		return
	}

	status := http.StatusOK
	if res.IsNew {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"session": sessionView{
			SessionID:   res.Session.ID,
			CurrentStep: res.Session.CurrentStep,
			FormData:    res.Session.FormData,
			Status:      res.Session.Status,
		},
		"isNew":            res.IsNew,
		"alreadyCompleted": false,
	})
}

// GetSession godoc
// GET /api/v1/session/:sessionId
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err, "Failed to get session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// SaveProgress godoc
// PUT /api/v1/session/:sessionId/progress
// Merges partial form data and moves the step cursor.
func (h *SessionHandler) SaveProgress(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	session, err := h.sessionService.SaveProgress(c.Request.Context(), id, req.CurrentStep, req.FormData)
	if err != nil {
		failWithError(c, h.log, err, "Failed to save progress")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"sessionId":   session.ID,
		"currentStep": session.CurrentStep,
		"status":      session.Status,
	})
}

// SubmitExam godoc
// POST /api/v1/session/:sessionId/submit
// Scores the attempt and records a submission when it passes.
func (h *SessionHandler) SubmitExam(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	res, err := h.sessionService.SubmitExam(c.Request.Context(), id, req.FormData, req.MCQAnswers, req.MCQScore)
	if err != nil {
		failWithError(c, h.log, err, "Failed to submit exam")
		return
	}

	message := msgNotPassed
	if res.IsPassing {
		message = msgPassed
	}
	response.Success(c, http.StatusOK, gin.H{
		"isPassing":         res.IsPassing,
		"score":             res.Score,
		"passingPercentage": res.PassingPercentage,
		"status":            res.Session.Status,
		"submissionId":      res.SubmissionID,
		"message":           message,
	})
}

// MarkAssessmentFailed godoc
// POST /api/v1/session/:sessionId/fail-assessment
// Locks the session after a failed assessment. Safe to repeat.
func (h *SessionHandler) MarkAssessmentFailed(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.FailAssessmentRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	res, err := h.sessionService.MarkAssessmentFailed(c.Request.Context(), id, req.MCQScore)
	if err != nil {
		failWithError(c, h.log, err, "Failed to mark assessment as failed")
		return
	}

	if res.AlreadyCompleted {
		response.Success(c, http.StatusOK, gin.H{
			"alreadyCompleted": true,
			"status":           res.Session.Status,
			"message":          msgAlreadyCompleted,
		})
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"status":  res.Session.Status,
		"message": msgAssessmentFailed,
	})
}

// CheckAttemptStatus godoc
// GET /api/v1/session/check?email=&phone=
func (h *SessionHandler) CheckAttemptStatus(c *gin.Context) {
	var q model.CheckAttemptQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidInput, "Email and phone are required")
		return
	}

	status, err := h.sessionService.CheckAttemptStatus(c.Request.Context(), q.Email, q.Phone)
	if err != nil {
		failWithError(c, h.log, err, "Failed to check attempt status")
		return
	}
	response.Success(c, http.StatusOK, status)
}
