package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bookcheck/internal/config"
	"bookcheck/internal/logging"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
	"bookcheck/internal/session"
	"bookcheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"seoji_url", cfg.Lookup.SeojiURL,
		"max_concurrent_runs", cfg.Validation.MaxConcurrentRuns,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Column-detection keywords, optionally overridden from YAML
	keywords := mapping.DefaultKeywords()
	if cfg.Mapping.KeywordsFile != "" {
		kw, err := mapping.LoadKeywords(cfg.Mapping.KeywordsFile)
		if err != nil {
			slog.Warn("keyword override file not usable, using defaults",
				"file", cfg.Mapping.KeywordsFile,
				"error", err,
			)
		}
		keywords = kw
	}

	// Upstream bibliographic API client
	client := lookup.NewSeojiClient(cfg.Lookup.SeojiURL, cfg.Lookup.CertKey, cfg.Lookup.Timeout)

	// Session service owning uploads and validation runs
	service := session.NewService(client, session.Options{
		Keywords:      keywords,
		MaxConcurrent: cfg.Validation.MaxConcurrentRuns,
		MaxWait:       cfg.Validation.MaxWaitTime,
		RunTimeout:    cfg.Validation.RunTimeout,
		SessionTTL:    cfg.Session.TTL,
	})

	server := web.NewServer(cfg, service, client)

	// Cancellable context for the session janitor
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	service.StartJanitor(jobCtx)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active validation runs to finish (with timeout)
		if active := service.ActiveRuns(); active > 0 {
			slog.Info("waiting for validation runs to complete", "active", active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("validation runs did not complete in time", "error", err)
			} else {
				slog.Info("all validation runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
