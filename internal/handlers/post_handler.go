package handlers

import (
	"net/http"
	"strconv"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/notifier"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/chirp-social/backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles post CRUD plus the like/comment interactions that
// emit notifications.
type PostHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	notifier               *notifier.Notifier
	uploader               *uploads.Uploader
}

// NewPostHandler creates a new PostHandler. notifier and uploader may be nil.
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	n *notifier.Notifier,
	uploader *uploads.Uploader,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		notifier:               n,
		uploader:               uploader,
	}
}

// RegisterPostRoutes registers post routes on an authenticated group.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts/create", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/like/:id", h.LikeUnlikePost)
	g.POST("/posts/comment/:id", h.CommentOnPost)
	g.GET("/posts/all", h.GetAllPosts)
	g.GET("/posts/user/:username", h.GetUserPosts)
}

// CreatePost creates a post with text and/or an image.
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" && req.Img == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must have text or image")
	}

	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	img := req.Img
	if img != "" && h.uploader != nil {
		hosted, err := h.uploader.UploadImage(ctx, img, "post_images", uploads.PostImageTransformation)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error uploading post image")
		}
		img = hosted
	}

	post := &models.Post{
		User: currentUser.ID,
		Text: req.Text,
		Img:  img,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// DeletePost deletes a post, owner-only, destroying its hosted image.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if err == repositories.ErrPostNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return err
	}
	if post.User != currentUser.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if post.Img != "" && h.uploader != nil {
		h.uploader.DestroyImage(ctx, post.Img)
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// LikeUnlikePost toggles the caller's like. Liking another user's post
// creates one like notification carrying the post reference.
func (h *PostHandler) LikeUnlikePost(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if err == repositories.ErrPostNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return err
	}

	if post.IsLikedBy(currentUser.ID) {
		if err := h.postRepository.RemoveLike(ctx, postID, currentUser.ID); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Post unliked successfully"})
	}

	if err := h.postRepository.AddLike(ctx, postID, currentUser.ID); err != nil {
		return err
	}

	if post.User != currentUser.ID {
		notification := &models.Notification{
			Type: models.NotificationTypeLike,
			From: currentUser.ID,
			To:   post.User,
			Post: &post.ID,
		}
		if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
			return err
		}
		if h.notifier != nil {
			h.notifier.Dispatch(ctx, notification)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post liked successfully"})
}

// CommentOnPost appends a comment. Commenting on another user's post
// creates one comment notification carrying the post reference.
func (h *PostHandler) CommentOnPost(c echo.Context) error {
	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Text field is required")
	}

	currentUser := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		if err == repositories.ErrPostNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return err
	}

	comment := &models.Comment{User: currentUser.ID, Text: req.Text}
	if err := h.postRepository.AddComment(ctx, postID, comment); err != nil {
		return err
	}

	if post.User != currentUser.ID {
		notification := &models.Notification{
			Type: models.NotificationTypeComment,
			From: currentUser.ID,
			To:   post.User,
			Post: &post.ID,
		}
		if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
			return err
		}
		if h.notifier != nil {
			h.notifier.Dispatch(ctx, notification)
		}
	}

	updated, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// GetAllPosts returns a newest-first page of posts with author profiles.
func (h *PostHandler) GetAllPosts(c echo.Context) error {
	skip, limit := pagination(c)
	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

// GetUserPosts returns a newest-first page of one author's posts.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	ctx := c.Request().Context()

	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}

	skip, limit := pagination(c)
	posts, err := h.postRepository.GetPostsByUser(ctx, author.ID, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.enrichPosts(c, posts))
}

func (h *PostHandler) enrichPosts(c echo.Context, posts []models.Post) []models.EnrichedPost {
	ctx := c.Request().Context()
	enriched := make([]models.EnrichedPost, len(posts))
	userCache := make(map[primitive.ObjectID]models.UserCompact)

	for i, p := range posts {
		enriched[i] = models.EnrichedPost{Post: p}
		if author, ok := userCache[p.User]; ok {
			enriched[i].Author = author
		} else if user, err := h.userRepository.GetUserByID(ctx, p.User); err == nil {
			compact := user.ToCompact()
			userCache[p.User] = compact
			enriched[i].Author = compact
		}
	}
	return enriched
}

func pagination(c echo.Context) (skip, limit int64) {
	skip, _ = strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return skip, limit
}
