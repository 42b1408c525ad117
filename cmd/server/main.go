package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scoutlabs/retailboard/internal/api"
	"github.com/scoutlabs/retailboard/internal/catalog"
	"github.com/scoutlabs/retailboard/internal/config"
	"github.com/scoutlabs/retailboard/internal/dashboard"
	"github.com/scoutlabs/retailboard/internal/filter"
	"github.com/scoutlabs/retailboard/internal/migrations"
	"github.com/scoutlabs/retailboard/internal/reporter"
	"github.com/scoutlabs/retailboard/internal/schema"
)

func main() {
	slog.Info("Starting retailboard server...")

	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	if err := migrations.RunMigrations(cfg.PostgresURL); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := catalog.ConnectPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("Database setup failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	persister, err := filter.OpenSQLitePersister(cfg.SQLitePath)
	if err != nil {
		slog.Error("Failed to open filter session store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	filters := filter.NewManager(persister)
	defer func() {
		if err := filters.Close(); err != nil {
			slog.Error("Error closing filter session store", "error", err)
		}
	}()

	handler := api.NewHandler(
		schema.NewLoader(cfg.GuardianOptions.SpecURL,
			time.Duration(cfg.GuardianOptions.FetchTimeoutSecs)*time.Second),
		catalog.NewFetcher(pool),
		reporter.NewGitHubReporter(
			cfg.ReporterOptions.GitHubToken,
			cfg.ReporterOptions.GitHubOwner,
			cfg.ReporterOptions.GitHubRepo,
			time.Duration(cfg.ReporterOptions.TimeoutSecs)*time.Second),
		dashboard.NewService(pool),
		filters,
		cfg.PublicBaseURL,
	)

	server := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: api.NewRouter(handler),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdownSignal()
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}

	slog.Info("Server stopped gracefully.")
}

func setupLogger(level string) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
