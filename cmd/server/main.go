package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/Sadiqmanga/voucher-system/internal/config"
	"github.com/Sadiqmanga/voucher-system/internal/container"
	"github.com/Sadiqmanga/voucher-system/pkg/utils"
)

func main() {
	// SMTP credentials live in .env, not in the config file
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting voucher management system",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	app, err := container.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start application", zap.Error(err))
	}

	// Cancel the serving context on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}

	if err := app.Close(); err != nil {
		logger.Error("Failed to close application cleanly", zap.Error(err))
	}

	logger.Info("Server exited")
}
