package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/heritage-museum/internal/audit"
	"github.com/Baaaki/heritage-museum/internal/captcha"
	"github.com/Baaaki/heritage-museum/internal/config"
	"github.com/Baaaki/heritage-museum/internal/database"
	"github.com/Baaaki/heritage-museum/internal/handler"
	"github.com/Baaaki/heritage-museum/internal/mail"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/internal/storage/minio"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Log.Fatal("Invalid redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	cancel()

	auditLog, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open audit log", zap.Error(err))
	}
	defer auditLog.Close()

	var images service.ImageStore
	if cfg.Storage.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := minio.Connect(ctx, cfg.Storage)
		cancel()
		if err != nil {
			logger.Log.Fatal("Failed to connect to object storage", zap.Error(err))
		}
		images = store
		logger.Log.Info("Image storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)
	codeRepo := repository.NewCodeRepository(redisClient)

	// Services
	sessionService := service.NewSessionService(sessionRepo, userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	authService := service.NewAuthService(userRepo, codeRepo, sessionService,
		mail.New(cfg.SMTP), captcha.New(cfg.Captcha), cfg.Codes.TTL)
	userService := service.NewUserService(userRepo, auditLog)
	eventService := service.NewEventService(eventRepo, auditLog, images)
	commentService := service.NewCommentService(commentRepo, eventRepo)

	router := handler.SetupRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authService, sessionService, cfg.IsProduction()),
		User:     handler.NewUserHandler(userService),
		Admin:    handler.NewAdminHandler(userService, eventService),
		Event:    handler.NewEventHandler(eventService),
		Comment:  handler.NewCommentHandler(commentService),
		Sessions: sessionService,
	}, handler.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
