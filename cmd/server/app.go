package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lecgen/internal/config"
	"github.com/phrazzld/lecgen/internal/events"
	"github.com/phrazzld/lecgen/internal/jobsvc"
	"github.com/phrazzld/lecgen/internal/platform/postgres"
	"github.com/phrazzld/lecgen/internal/service"
	"github.com/phrazzld/lecgen/internal/store"
	"github.com/phrazzld/lecgen/internal/task"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when attempts are kept in memory.
	db       *sql.DB
	attempts store.AttemptStore

	client  *jobsvc.Client
	emitter *events.InMemoryEventEmitter
	tracker *task.Tracker
	results *service.ResultBook
	quizzes *service.QuizService

	preferences *service.PreferenceStore
}

// newApplication wires the job service client, the tracker and the quiz
// services. When a database URL is configured, pending migrations are
// applied and attempts are stored in PostgreSQL.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.client, err = jobsvc.New(cfg.JobService.BaseURL, jobsvc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create job service client: %w", err)
	}

	if err := app.setupAttemptStore(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.tracker = task.NewTracker(app.client,
		task.WithEmitter(app.emitter),
		task.WithLogger(logger))

	app.results = service.NewResultBook(app.tracker, app.client, logger)
	app.emitter.RegisterHandler(app.results)

	app.quizzes, err = service.NewQuizService(app.results, app.attempts, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create quiz service: %w", err)
	}

	if err := app.setupPreferences(); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized")
	return app, nil
}

func (app *application) setupAttemptStore(ctx context.Context) error {
	if app.config.Database.URL == "" {
		app.attempts = store.NewMemoryAttemptStore()
		app.logger.Info("quiz attempts kept in memory")
		return nil
	}

	db, err := postgres.Open(ctx, app.config.Database.URL)
	if err != nil {
		return err
	}
	app.db = db

	if err := postgres.Migrate(ctx, db, "up", app.logger); err != nil {
		return err
	}

	app.attempts = postgres.NewPostgresAttemptStore(db, app.logger)
	app.logger.Info("quiz attempts stored in postgres")
	return nil
}

// setupPreferences restores saved preferences when a preferences file is
// configured and saves every later change back to it.
func (app *application) setupPreferences() error {
	prefs := app.config.Preferences
	path := app.config.PreferencesFile
	if path == "" {
		app.preferences = service.NewPreferenceStore(prefs, nil, app.logger)
		return nil
	}

	prefs, err := config.LoadPreferences(path, prefs)
	if err != nil {
		return err
	}
	app.preferences = service.NewPreferenceStore(prefs, func(p config.PreferencesConfig) error {
		return config.SavePreferences(path, p)
	}, app.logger)
	app.logger.Info("preferences saved on change", "path", path)
	return nil
}

// Run serves the API until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops polling and closes the database.
func (app *application) cleanup() {
	if app.tracker != nil {
		app.tracker.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
		app.db = nil
	}
}
