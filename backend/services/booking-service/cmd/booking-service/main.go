package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	libconfig "chargebook/backend/libs/config"
	"chargebook/backend/libs/logging"
	"chargebook/backend/services/booking-service/internal/app"
	"chargebook/backend/services/booking-service/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("booking-service")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	configFile, dotenvFile := libconfig.Sources()
	logger.Info("booking service starting",
		zap.String("config_file", configFile),
		zap.String("dotenv_file", dotenvFile),
		zap.String("http_addr", cfg.HTTPAddress()),
	)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}
