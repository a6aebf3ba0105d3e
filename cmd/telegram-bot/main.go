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

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/logger"
	"meal-rotation/internal/telegram"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Telegram is not configured: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.Debug})
	defer zl.Sync()

	ctx := context.Background()

	// 2. Database, extractor, Ghost and backups
	a, cleanup, err := app.Open(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize app", zap.Error(err))
	}
	defer cleanup()

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, zl, a)
	if err != nil {
		zl.Fatal("Failed to initialize Telegram Bot", zap.Error(err))
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Telegram Bot Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	zl.Info("Server exiting")
}
