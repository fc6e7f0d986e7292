package handlers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const sessionDuration = 15 * 24 * time.Hour

// AuthHandler handles signup, login, logout and session introspection.
type AuthHandler struct {
	userRepository repositories.UserRepository
	jwtSecret      string
	secureCookies  bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies should be true
// outside development so the session cookie is HTTPS-only.
func NewAuthHandler(userRepo repositories.UserRepository, jwtSecret string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		jwtSecret:      jwtSecret,
		secureCookies:  secureCookies,
	}
}

// RegisterPublicRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

// RegisterProtectedRoutes registers the session-bound auth routes.
func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/me", h.GetMe)
}

// Signup creates an account. The record is persisted before the session
// cookie is issued, so a failed save never leaves a live session behind.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	ctx := c.Request().Context()

	if !emailRegex.MatchString(req.Email) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid Email")
	}

	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	} else if err != repositories.ErrUserNotFound {
		return err
	}

	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already exists")
	} else if err != repositories.ErrUserNotFound {
		return err
	}

	if len(req.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be atleast 6 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return err
	}

	if err := h.setSessionCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials. A missing user and a wrong password produce
// the same constant error.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil && err != repositories.ErrUserNotFound {
		return err
	}

	storedHash := ""
	if user != nil {
		storedHash = user.Password
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil || user == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid Credentials")
	}

	if err := h.setSessionCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, user)
}

// Logout expires the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged Out Successfully"})
}

// GetMe returns the authenticated caller's document.
func (h *AuthHandler) GetMe(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, user *models.User) error {
	claims := &models.JwtCustomClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
	})
	return nil
}
