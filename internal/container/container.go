package container

import (
	"context"
	"fmt"

	"labfit/adapters/excel"
	"labfit/adapters/postgres"
	"labfit/adapters/stats/expression"
	"labfit/adapters/stats/solver"
	"labfit/adapters/tsv"
	"labfit/app"
	"labfit/internal"
	"labfit/internal/config"
	"labfit/internal/errors"
	"labfit/internal/migration"
	"labfit/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Solver   *solver.Solver
	Compiler *expression.Compiler
	Tables   *app.TableSource

	// Services
	Fits  *app.FitService
	Batch *app.BatchService

	// FitRepo is nil until InitWithDatabase succeeds
	FitRepo ports.FitRepository
}

// New creates a new dependency injection container. Everything that does not
// need the database is wired immediately.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.Solver = solver.New(solver.Options{
		MaxIterations: cfg.Solver.MaxIterations,
		FTol:          cfg.Solver.FTol,
		XTol:          cfg.Solver.XTol,
		GTol:          cfg.Solver.GTol,
	}, logger)
	c.Compiler = expression.NewCompiler()
	c.Fits = app.NewFitService(c.Solver, c.Compiler, logger)

	excelConfig := excel.DefaultConfig()
	excelConfig.Digits = cfg.Report.Digits
	c.Tables = app.NewTableSource(tsv.NewReader(logger), excel.NewReader(excelConfig, logger))
	c.Batch = app.NewBatchService(c.Tables, c.Fits, cfg.Batch.Workers, logger)

	return c, nil
}

// InitWithDatabase connects to the configured result store, migrates its
// schema and enables result persistence.
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		return errors.StoreDisabled()
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.DSN())
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.DatabaseError("database connection test failed", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.FitRepo = postgres.NewFitRepository(db)
	c.Batch.WithRepository(c.FitRepo)

	c.Logger.Info("result store ready (schema %s)", migrator.Version())
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
