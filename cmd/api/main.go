package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"farm-registry/internal/app"
	"farm-registry/internal/platform/config"
	"farm-registry/internal/platform/logger"
)

// @title Farm Registry API
// @version 1.0
// @description Granjas, animales (máximo 3 por granja), shares de lectura y journal de actividad.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
