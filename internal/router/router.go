package router

import (
	"github.com/chirp-social/backend/internal/handlers"
	"github.com/chirp-social/backend/internal/mailer"
	"github.com/chirp-social/backend/internal/middleware"
	"github.com/chirp-social/backend/internal/notifier"
	"github.com/chirp-social/backend/internal/repositories"
	"github.com/chirp-social/backend/pkg/config"
	"github.com/chirp-social/backend/pkg/push"
	"github.com/chirp-social/backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SetupMiddleware configures global Echo middleware.
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(logger)
}

// SetupRoutes wires repositories, the notifier and all handlers onto the
// Echo instance. The returned Notifier owns the background jobs; uploader,
// pushClient and m may be nil, disabling the matching channel.
func SetupRoutes(
	e *echo.Echo,
	db *mongo.Database,
	cfg *config.Config,
	logger *zap.Logger,
	uploader *uploads.Uploader,
	pushClient *push.Client,
	m *mailer.Mailer,
) *notifier.Notifier {
	e.GET("/health", handlers.HealthCheck)

	userRepo := repositories.NewMongoUserRepository(db)
	postRepo := repositories.NewMongoPostRepository(db)
	notificationRepo := repositories.NewMongoNotificationRepository(db)
	settingsRepo := repositories.NewMongoNotificationSettingsRepository(db)

	n := notifier.New(logger, userRepo, settingsRepo, notificationRepo, m, pushClient)

	secureCookies := cfg.Env != "development"
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, secureCookies)
	authGroup := e.Group("/api/auth")
	authHandler.RegisterPublicRoutes(authGroup)

	protected := e.Group("/api")
	protected.Use(middleware.CookieAuthMiddleware(userRepo, cfg.JWTSecret))

	authHandler.RegisterProtectedRoutes(protected.Group("/auth"))

	userHandler := handlers.NewUserHandler(userRepo, notificationRepo, n, uploader)
	userHandler.RegisterUserRoutes(protected.Group("/users"))

	postHandler := handlers.NewPostHandler(postRepo, userRepo, notificationRepo, n, uploader)
	postHandler.RegisterPostRoutes(protected)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, postRepo)
	notificationHandler.RegisterNotificationRoutes(protected)

	settingsHandler := handlers.NewNotificationSettingsHandler(settingsRepo)
	settingsHandler.RegisterNotificationSettingsRoutes(protected)

	logger.Info("all routes configured")
	return n
}
