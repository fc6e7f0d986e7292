package handlers

import (
	"net/http"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationSettingsHandler handles per-user notification preference
// requests.
type NotificationSettingsHandler struct {
	settingsRepository repositories.NotificationSettingsRepository
}

// NewNotificationSettingsHandler creates a new NotificationSettingsHandler.
func NewNotificationSettingsHandler(settingsRepo repositories.NotificationSettingsRepository) *NotificationSettingsHandler {
	return &NotificationSettingsHandler{settingsRepository: settingsRepo}
}

// RegisterNotificationSettingsRoutes registers settings routes on an
// authenticated group.
func (h *NotificationSettingsHandler) RegisterNotificationSettingsRoutes(g *echo.Group) {
	g.GET("/notification-settings", h.GetNotificationSettings)
	g.PUT("/notification-settings", h.UpdateNotificationSettings)
}

// GetNotificationSettings returns the caller's settings, creating the
// defaults on first access.
func (h *NotificationSettingsHandler) GetNotificationSettings(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	settings, err := h.settingsRepository.GetOrCreate(c.Request().Context(), currentUser.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateNotificationSettings applies a full or partial replacement with
// upsert semantics and returns the resulting document.
func (h *NotificationSettingsHandler) UpdateNotificationSettings(c echo.Context) error {
	var req models.UpdateNotificationSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	currentUser := middleware.CurrentUser(c)

	settings, err := h.settingsRepository.Upsert(c.Request().Context(), currentUser.ID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}
