package main

import (
	"context"
	"log"

	"github.com/chirp-social/backend/internal/mailer"
	"github.com/chirp-social/backend/internal/router"
	"github.com/chirp-social/backend/pkg/config"
	"github.com/chirp-social/backend/pkg/push"
	"github.com/chirp-social/backend/pkg/uploads"
	"github.com/chirp-social/backend/validators"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create zap logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.CloseDB()

	var uploader *uploads.Uploader
	if cfg.CloudinaryURL != "" {
		uploader, err = uploads.New(cfg.CloudinaryURL, logger)
		if err != nil {
			logger.Fatal("failed to initialize cloudinary", zap.Error(err))
		}
	} else {
		logger.Warn("CLOUDINARY_URL not set, image hosting disabled")
	}

	ctx := context.Background()
	pushClient, err := push.Init(ctx, cfg.FirebaseCredentialsPath, logger)
	if err != nil {
		logger.Fatal("failed to initialize push client", zap.Error(err))
	}
	if pushClient == nil {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set, push delivery disabled")
	}

	m := mailer.New(cfg, logger)
	if m == nil {
		logger.Warn("SMTP_HOST not set, email delivery disabled")
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, logger)

	n := router.SetupRoutes(e, db.Mongo.Database(cfg.MongoDB), cfg, logger, uploader, pushClient, m)
	n.StartJobs()
	defer n.StopJobs()

	logger.Info("server starting", zap.String("port", cfg.Port))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
