package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/khrees2412/jobharvest/internal/browser"
	"github.com/khrees2412/jobharvest/internal/config"
	"github.com/khrees2412/jobharvest/internal/database"
	"github.com/khrees2412/jobharvest/internal/harvest"
	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/store"
)

// App is the dependency container for the CLI application
type App struct {
	DB     *sql.DB
	Runs   *database.Repository
	Config *config.Config
	Logger logger.Logger
}

// NewApp initializes and returns a new App instance
func NewApp(ctx context.Context) (*App, error) {
	// Initialize config
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg := config.AppConfig

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &App{
		DB:     db,
		Runs:   database.NewRepository(db),
		Config: cfg,
		Logger: log,
	}, nil
}

// Store opens the JSON document at path, or the configured output file when
// path is empty.
func (a *App) Store(path string) *store.Store {
	if path == "" {
		path = a.Config.OutputFile
	}
	return store.New(path, a.Logger.With(logger.String("component", "store")))
}

// StartBrowser launches Chrome with the configured options.
func (a *App) StartBrowser(ctx context.Context) (*browser.Chrome, error) {
	chrome, err := browser.New(ctx, browser.Options{
		Headless:  a.Config.Headless,
		UserAgent: a.Config.UserAgent,
	}, a.Logger.With(logger.String("component", "browser")))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowser, err)
	}
	return chrome, nil
}

// HarvestOptions maps configuration onto orchestrator options.
func (a *App) HarvestOptions(querySpec string) harvest.Options {
	cfg := a.Config
	return harvest.Options{
		QuerySpec:       querySpec,
		Limit:           cfg.Limit,
		IsToday:         cfg.IsToday,
		CityState:       cfg.CityState,
		SearchDelayMin:  cfg.SearchDelayMin,
		SearchDelayMax:  cfg.SearchDelayMax,
		ResultsTimeout:  cfg.ResultsTimeout,
		ResultsAttempts: cfg.ResultsAttempts,
		Selectors:       cfg.Selectors,
		Timing:          cfg.Timing,
	}
}

// Close closes all resources
func (a *App) Close() error {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
