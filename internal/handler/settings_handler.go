package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudata/completion-report-api/internal/service"
	"github.com/edudata/completion-report-api/pkg/response"
)

// SettingsHandler exposes the resolved report settings and the catalogs
// behind them.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Resolved report settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Resolve(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Refresh godoc
// @Summary Drop the settings cache and reload
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/refresh [post]
func (h *SettingsHandler) Refresh(c *gin.Context) {
	h.settings.Invalidate(c.Request.Context())
	settings, err := h.settings.Resolve(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// ModuleTypes godoc
// @Summary Trackable module-type catalog
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/module-types [get]
func (h *SettingsHandler) ModuleTypes(c *gin.Context) {
	types, err := h.settings.ModuleTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
