// Package main runs the LecGen bridge server. It submits lecture sources to
// the job service, follows each job to completion, and serves quizzes built
// from the generated results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/lecgen/internal/config"
	"github.com/phrazzld/lecgen/internal/platform/logger"
	"github.com/phrazzld/lecgen/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a migration command (up, down, status, version) and exit")
	envFile := flag.String("env-file", ".env", "Environment file loaded before configuration, if present")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *envFile, *migrateCmd); err != nil {
		log.Fatalf("lecgen: %v", err)
	}
}

func run(ctx context.Context, envFile, migrateCmd string) error {
	if err := loadEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"job_service", cfg.JobService.BaseURL,
		"database", cfg.Database.URL != "")

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}

// loadEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func runMigrations(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("migrations need database.url to be set")
	}

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("failed to close database", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, l)
}
