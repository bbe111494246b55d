package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
)

// SubmissionHandler exposes stored submissions to administrators.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	log               zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService *service.SubmissionService, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "submission_handler").Logger(),
	}
}

// GetSubmission godoc
// GET /api/v1/admin/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.submissionService.GetSubmission(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err, "Failed to get submission")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}
