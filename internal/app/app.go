// Package app provides the application initialization and lifecycle management
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/branding"
	"github.com/tildaslashalef/worklog/internal/config"
	"github.com/tildaslashalef/worklog/internal/database"
	"github.com/tildaslashalef/worklog/internal/issue"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/session"
	"github.com/tildaslashalef/worklog/internal/snapshot"
	"github.com/tildaslashalef/worklog/internal/sprint"
	"github.com/tildaslashalef/worklog/internal/tracker"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// App represents the application instance with its dependencies
type App struct {
	Config       *config.Config
	Tracker      *tracker.Client
	Sprints      *sprint.Service
	Issues       *issue.Service
	Meetings     *meeting.Service
	Worklogs     *worklog.Service
	Sessions     *session.Service
	Achievements *achievement.Service
	Snapshots    *snapshot.Collector
	Branding     *branding.Branding
	Settings     *config.SettingsService
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
	)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	app, err := initServices(cfg, db)
	if err != nil {
		return nil, err
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices initializes all application services
func initServices(cfg *config.Config, db *sql.DB) (*App, error) {
	logger := loggy.GetGlobalLogger()
	ctx := context.Background()

	settingsService := config.NewSettingsService(db, cfg, logger)
	if err := settingsService.LoadTrackerSettings(ctx); err != nil {
		loggy.Warn("Failed to load tracker settings from database", "error", err)
		// Continue anyway, using env values
	}

	trackerClient := tracker.NewClient(cfg.Tracker, logger)

	sprintService := sprint.NewService(db, trackerClient, logger)
	issueService := issue.NewService(db, trackerClient, logger)
	meetingService := meeting.NewService(db, issueService, logger)
	worklogService := worklog.NewService(db, trackerClient, logger)
	sessionService := session.NewService(db, cfg.GitHub, logger)
	achievementService := achievement.NewService(db, logger)

	snapshotCollector := snapshot.NewCollector(
		sprintService,
		issueService,
		meetingService,
		worklogService,
		sessionService,
		achievementService,
		logger,
	)

	return &App{
		Config:       cfg,
		Tracker:      trackerClient,
		Sprints:      sprintService,
		Issues:       issueService,
		Meetings:     meetingService,
		Worklogs:     worklogService,
		Sessions:     sessionService,
		Achievements: achievementService,
		Snapshots:    snapshotCollector,
		Branding:     branding.Load(),
		Settings:     settingsService,
	}, nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
	}

	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
