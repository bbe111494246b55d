package handler

import (
	"maps"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/middleware"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
	"github.com/stemsi/submission-portal/internal/validator"
)

// SettingHandler exposes the portal settings, chiefly the passing threshold.
type SettingHandler struct {
	settingService *service.SettingService
	log            zerolog.Logger
}

func NewSettingHandler(settingService *service.SettingService, log zerolog.Logger) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
		log:            log.With().Str("component", "setting_handler").Logger(),
	}
}

// GetAllSettings godoc
// GET /api/v1/admin/settings
func (h *SettingHandler) GetAllSettings(c *gin.Context) {
	settings, err := h.settingService.GetAllSettings(c.Request.Context())
	if err != nil {
		failWithError(c, h.log, err, "Failed to get settings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings godoc
// PUT /api/v1/admin/settings
// Threshold changes apply to submissions made after the call returns; sessions
// already completed keep the outcome they were given.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidInput, fields)
		return
	}

	ctx := c.Request.Context()
	if err := h.settingService.UpdateSettings(ctx, req.Settings); err != nil {
		failWithError(c, h.log, err, "Failed to update settings")
		return
	}

	event := h.log.Info().Strs("keys", slices.Sorted(maps.Keys(req.Settings)))
	if claims := middleware.GetClaims(c); claims != nil {
		event = event.Int("admin_id", claims.AdminID).Str("admin_email", claims.Email)
	}
	event.Msg("Settings updated")

	settings, err := h.settingService.GetAllSettings(ctx)
	if err != nil {
		failWithError(c, h.log, err, "Failed to get settings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// GetPublicSettings godoc
// GET /api/v1/public/settings
// Only the keys candidates need before starting are exposed.
func (h *SettingHandler) GetPublicSettings(c *gin.Context) {
	settings, err := h.settingService.GetPublicSettings(c.Request.Context())
	if err != nil {
		failWithError(c, h.log, err, "Failed to get settings")
		return
	}
	response.Success(c, http.StatusOK, settings)
}
