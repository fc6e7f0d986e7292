package middleware

import (
	"net/http"

	"github.com/chirp-social/backend/internal/models"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "jwt"

// userContextKey is where the resolved caller is stored on the echo context.
const userContextKey = "user"

// CookieAuthMiddleware validates the jwt session cookie, resolves the caller
// to a user document and injects it into the request context.
func CookieAuthMiddleware(userRepo repositories.UserRepository, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: No Token Provided")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid Token")
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid Token")
			}

			user, err := userRepo.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				if err == repositories.ErrUserNotFound {
					return echo.NewHTTPError(http.StatusNotFound, "User not found")
				}
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user injected by
// CookieAuthMiddleware, or nil outside an authenticated request.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// SetCurrentUser injects a user into the context. Exposed for tests.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}
