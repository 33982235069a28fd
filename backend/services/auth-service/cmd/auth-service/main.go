package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	libconfig "chargebook/backend/libs/config"
	"chargebook/backend/libs/logging"
	"chargebook/backend/services/auth-service/internal/app"
	"chargebook/backend/services/auth-service/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "auth-service:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger("auth-service")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	configFile, dotenvFile := libconfig.Sources()
	logger.Info("auth service starting",
		zap.String("config_file", configFile),
		zap.String("dotenv_file", dotenvFile),
		zap.String("http_addr", cfg.HTTPAddress()),
		zap.Duration("token_ttl", cfg.JWTExpiration()),
	)

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped with error", zap.Error(err))
		return err
	}
	logger.Info("auth service stopped")
	return nil
}
