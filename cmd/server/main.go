package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urgency-service/internal/config"
	"urgency-service/internal/legacy"
	"urgency-service/internal/logging"
	"urgency-service/internal/notify"
	"urgency-service/internal/repository"
	"urgency-service/internal/server"
	"urgency-service/internal/service"
)

func main() {
	configPath := os.Getenv("URGENCY_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Urgency Service...", zap.String("config", configPath))

	if cfg.Database.Type == repository.TypeSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}
	db, err := repository.NewDB(cfg.Database.Type, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, logger)
	runRepo := repository.NewTrainingRunRepository(db, logger)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.TokenTTL(), logger)

	predictor, err := legacy.Load(cfg.Legacy.ModelPath, cfg.Legacy.EncoderPath)
	if err != nil {
		logger.Warn("Legacy prediction disabled", zap.Error(err))
	} else {
		logger.Info("Legacy model and encoder loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier notify.Notifier = notify.Nop{}
	var alerts *notify.Async
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram alerts disabled", zap.Error(err))
		} else {
			alerts = notify.NewAsync(tg, 32, logger)
			alerts.Start(ctx)
			notifier = alerts
		}
	}

	urgency := service.NewUrgency(cfg.Training, runRepo, logger)
	if _, err := urgency.Train(ctx); err != nil {
		logger.Warn("Dynamic urgency model not initialized", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(server.Deps{
		Urgency:  urgency,
		Runs:     runRepo,
		Auth:     authService,
		Legacy:   predictor,
		Notifier: notifier,
	}, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: srv.Handler(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Urgency Service is running",
		zap.String("port", cfg.Server.Port),
		zap.Bool("dynamic_ready", urgency.Status().Ready),
		zap.Bool("legacy_ready", predictor != nil))

	<-ctx.Done()

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if alerts != nil {
		alerts.Wait()
	}

	logger.Info("Server exited")
}
