package handlers

import (
	"net/http"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/notifier"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/chirp-social/backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const suggestedUsersLimit = 5

// UserHandler handles profile, follow-graph and account-update requests.
type UserHandler struct {
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	notifier               *notifier.Notifier
	uploader               *uploads.Uploader
}

// NewUserHandler creates a new UserHandler. notifier and uploader may be nil.
func NewUserHandler(
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	n *notifier.Notifier,
	uploader *uploads.Uploader,
) *UserHandler {
	return &UserHandler{
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		notifier:               n,
		uploader:               uploader,
	}
}

// RegisterUserRoutes registers user routes on an authenticated group.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile/:username", h.GetUserProfile)
	g.GET("/suggested", h.GetSuggestedUsers)
	g.POST("/follow/:id", h.FollowUnfollowUser)
	g.POST("/update", h.UpdateUser)
}

// GetUserProfile returns a user's public profile by username.
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// FollowUnfollowUser toggles the follow relation towards the target user.
// A follow creates exactly one notification; an unfollow creates none.
func (h *UserHandler) FollowUnfollowUser(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if targetID == currentUser.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "You can't follow/unfollow yourself")
	}

	targetUser, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}

	if currentUser.IsFollowing(targetID) {
		if err := h.userRepository.RemoveFollow(ctx, currentUser.ID, targetID); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Unfollowed successfully"})
	}

	if err := h.userRepository.AddFollow(ctx, currentUser.ID, targetID); err != nil {
		return err
	}

	notification := &models.Notification{
		Type: models.NotificationTypeFollow,
		From: currentUser.ID,
		To:   targetUser.ID,
	}
	if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
		return err
	}
	if h.notifier != nil {
		h.notifier.Dispatch(ctx, notification)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Followed successfully"})
}

// GetSuggestedUsers returns up to 5 users the caller does not follow yet.
func (h *UserHandler) GetSuggestedUsers(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	exclude := append([]primitive.ObjectID{currentUser.ID}, currentUser.Following...)
	users, err := h.userRepository.GetSuggestedUsers(c.Request().Context(), exclude, suggestedUsersLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser conditionally replaces any subset of the caller's profile
// fields. Changed usernames/emails are re-checked for uniqueness; password
// changes require the current and new password together; image fields are
// re-hosted and the prior asset destroyed.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, currentUser.ID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Username is already taken")
		} else if err != repositories.ErrUserNotFound {
			return err
		}
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Email is already taken")
		} else if err != repositories.ErrUserNotFound {
			return err
		}
	}

	if (req.NewPassword == "") != (req.CurrentPassword == "") {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide current password and new password")
	}

	if req.CurrentPassword != "" && req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid current password")
		}
		if len(req.NewPassword) < 6 {
			return echo.NewHTTPError(http.StatusBadRequest, "New password should be at least 6 characters long")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
		}
		user.Password = string(hashed)
	}

	if req.ProfileImg != "" && req.ProfileImg != user.ProfileImg {
		hosted, err := h.rehostImage(c, req.ProfileImg, user.ProfileImg, "profile_images", uploads.ProfileImageTransformation)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error uploading profile image")
		}
		user.ProfileImg = hosted
	}

	if req.CoverImg != "" && req.CoverImg != user.CoverImg {
		hosted, err := h.rehostImage(c, req.CoverImg, user.CoverImg, "cover_images", uploads.CoverImageTransformation)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error uploading cover image")
		}
		user.CoverImg = hosted
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Link != "" {
		user.Link = req.Link
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// rehostImage uploads the new payload and destroys the replaced asset.
// Without an uploader the payload is stored as an opaque reference.
func (h *UserHandler) rehostImage(c echo.Context, payload, previous, folder, transformation string) (string, error) {
	if h.uploader == nil {
		return payload, nil
	}
	ctx := c.Request().Context()
	if previous != "" {
		h.uploader.DestroyImage(ctx, previous)
	}
	return h.uploader.UploadImage(ctx, payload, folder, transformation)
}
