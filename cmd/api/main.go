package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jvibeschool/chefcard/internal/api"
	"github.com/jvibeschool/chefcard/internal/config"
	"github.com/jvibeschool/chefcard/internal/logger"
	"github.com/jvibeschool/chefcard/internal/repository"
	"github.com/jvibeschool/chefcard/internal/service"
	"github.com/jvibeschool/chefcard/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	recipeRepo := repository.NewRecipeRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize storage (supports MinIO, R2, S3)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Ensure bucket exists
	ctx := context.Background()
	if s3Storage, ok := objectStorage.(*storage.S3Storage); ok {
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	// Initialize services
	chefService := service.NewChefService(&service.ChefConfig{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.TextModel,
		Timeout: cfg.Gemini.TextTimeout,
	})
	artistService := service.NewArtistService(&service.ArtistConfig{
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.ImageModel,
		Timeout:        cfg.Gemini.ImageTimeout,
		MaxRetries:     cfg.Generate.MaxRetries,
		RetryBaseDelay: cfg.Generate.RetryBaseDelay,
	})
	visionService := service.NewVisionService(&service.VisionConfig{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.TextModel,
		Timeout: cfg.Gemini.TextTimeout,
	})
	generatorService := service.NewGeneratorService(
		&service.GeneratorConfig{
			PlaceholderURL: cfg.Generate.PlaceholderURL,
			APIKeyFree:     cfg.Gemini.APIKeyFree,
			APIKeyPaid:     cfg.Gemini.APIKeyPaid,
		},
		chefService,
		artistService,
		visionService,
		recipeRepo,
		objectStorage,
	)
	usageService := service.NewUsageService(userRepo, int64(cfg.Quota.DailyLimit), cfg.Quota.AdminEmails)

	// Setup router
	router := api.SetupRouter(generatorService, usageService, recipeRepo, objectStorage, cfg, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
