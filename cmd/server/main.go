package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apartment_booking/internal/config"
	"apartment_booking/internal/handler"
	"apartment_booking/internal/lock"
	"apartment_booking/internal/logger"
	"apartment_booking/internal/middleware"
	"apartment_booking/internal/repository"
	"apartment_booking/internal/service"
	"apartment_booking/internal/storage"
	"apartment_booking/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, warnings, err := config.Load()
	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT"), Service: "apartment-booking"})
	if cfg != nil {
		log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "apartment-booking"})
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx := context.Background()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(ctx, dbPool, log); err != nil {
		log.Fatal("Failed to auto-migrate database", "error", err)
	}

	// --- Image Storage ---
	var images storage.ImageStore
	uploadsDir := ""
	switch cfg.StorageDriver {
	case config.StorageMinio:
		images, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		uploadsDir = cfg.UploadsDir
		images, err = storage.NewLocalStore(cfg.UploadsDir, "/uploads")
	}
	if err != nil {
		log.Fatal("Failed to initialise image storage", "driver", cfg.StorageDriver, "error", err)
	}
	log.Info("Image storage ready", "driver", cfg.StorageDriver)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("Failed to register validators", "error", err)
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpirationHours)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	apartmentRepo := repository.NewApartmentRepository(dbPool)
	bookingRepo := repository.NewBookingRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	statsRepo := repository.NewStatsRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, jwtUtil, service.AuthConfig{
		BcryptCost:        cfg.BcryptCost,
		InitialAdminEmail: cfg.InitialAdminEmail,
	}, log)
	services := handler.Services{
		Auth:       authService,
		Users:      service.NewUserService(userRepo, log),
		Apartments: service.NewApartmentService(apartmentRepo, bookingRepo, images, log),
		Bookings:   service.NewBookingService(bookingRepo, apartmentRepo, lock.NewKeyedMutex(), nil, log),
		Reviews:    service.NewReviewService(reviewRepo, bookingRepo, apartmentRepo, log),
		Admin:      service.NewAdminService(statsRepo, bookingRepo),
	}

	router := handler.NewRouter(handler.RouterConfig{
		JWT:        jwtUtil,
		DB:         dbPool,
		Log:        log,
		CORSOrigin: cfg.CORSAllowedOrigin,
		UploadsDir: uploadsDir,
	}, services)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting")
}
