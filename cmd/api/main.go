// Command api serves the Quill HTTP and websocket API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/quillhq/quill/internal/app"
	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/logging"
	"github.com/quillhq/quill/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: cfg.Debug})
	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to start application",
			"error", logging.Sanitize(err, cfg.DatabaseURL, cfg.RedisURL, cfg.MongoURL),
			"database_url", logging.RedactURL(cfg.DatabaseURL),
			"redis_url", logging.RedactURL(cfg.RedisURL),
		)
		os.Exit(1)
	}

	srv := server.New(a.Handler, cfg.AppPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)
	a.RegisterShutdown(srv)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.Environment,
		"database_driver", cfg.DatabaseDriver,
		"posts_backend", cfg.PostsBackend,
	)
	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
