package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
)

// failWithError translates a service error into the response envelope.
// Unrecognised errors are logged and reported with fallback as the message.
func failWithError(c *gin.Context, log zerolog.Logger, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidInput, verr.Message)
	case errors.Is(err, service.ErrSessionNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, "Session not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, "Submission not found")
	case errors.Is(err, service.ErrSessionCompleted):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrSessionCompleted, "Session already completed")
	case errors.Is(err, service.ErrDuplicateSession):
		response.Fail(c, http.StatusConflict, response.ErrDuplicate)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	default:
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg(fallback)
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrServer, fallback)
	}
}
