package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/identity"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stemsi/submission-portal/internal/validator"
)

// AuthHandler issues admin tokens. Candidates never authenticate; their
// session is keyed by email and phone instead.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	email := identity.NormalizeEmail(req.Email)
	res, err := h.authService.LoginAdmin(c.Request.Context(), email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.Warn().
			Str("email", email).
			Str("client_ip", c.ClientIP()).
			Msg("Admin login rejected")
	}
	if err != nil {
		failWithError(c, h.log, err, "Failed to log in")
		return
	}

	h.log.Info().Int("admin_id", res.Admin.ID).Msg("Admin logged in")
	response.Success(c, http.StatusOK, res)
}
