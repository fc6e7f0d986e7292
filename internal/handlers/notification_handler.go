package handlers

import (
	"net/http"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notificationsPageLimit = 20

// NotificationHandler handles notification-related HTTP requests.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	postRepository         repositories.PostRepository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		postRepository:         postRepo,
	}
}

// RegisterNotificationRoutes registers notification routes on an
// authenticated group.
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications", h.DeleteNotifications)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// enrichNotifications expands each notification with the sender's compact
// profile and, when present, the related post's text. Senders are cached
// per request.
func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []models.EnrichedNotification {
	ctx := c.Request().Context()
	enriched := make([]models.EnrichedNotification, len(notifications))
	userCache := make(map[primitive.ObjectID]models.UserCompact)

	for i, n := range notifications {
		enriched[i] = models.EnrichedNotification{Notification: n}

		if sender, ok := userCache[n.From]; ok {
			enriched[i].FromUser = sender
		} else if user, err := h.userRepository.GetUserByID(ctx, n.From); err == nil {
			compact := user.ToCompact()
			userCache[n.From] = compact
			enriched[i].FromUser = compact
		}

		if n.Post != nil {
			if post, err := h.postRepository.GetPostByID(ctx, *n.Post); err == nil {
				enriched[i].PostText = post.Text
			}
		}
	}
	return enriched
}

// GetNotifications returns the caller's 20 newest notifications.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	notifications, err := h.notificationRepository.ListByRecipient(c.Request().Context(), currentUser.ID, notificationsPageLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.enrichNotifications(c, notifications))
}

// GetUnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	count, err := h.notificationRepository.CountUnread(c.Request().Context(), currentUser.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one notification as read, addressee-only.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.notificationRepository.GetByID(ctx, notifID)
	if err != nil {
		if err == repositories.ErrNotificationNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return err
	}
	if notification.To != currentUser.ID {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to mark this notification as read")
	}

	if err := h.notificationRepository.MarkAsRead(ctx, notifID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

// MarkAllAsRead marks all of the caller's unread notifications as read.
// Repeated calls are no-ops after the first.
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	if _, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUser.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read"})
}

// DeleteNotification deletes one notification. The lookup is scoped to the
// caller, so a foreign notification reads as missing.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if _, err := h.notificationRepository.GetOwned(ctx, notifID, currentUser.ID); err != nil {
		if err == repositories.ErrNotificationNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return err
	}

	if err := h.notificationRepository.DeleteNotification(ctx, notifID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Notification deleted successfully"})
}

// DeleteNotifications deletes every notification addressed to the caller.
func (h *NotificationHandler) DeleteNotifications(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	if err := h.notificationRepository.DeleteAllForRecipient(c.Request().Context(), currentUser.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Notifications deleted successfully"})
}
