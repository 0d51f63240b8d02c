package migration

import (
	"context"

	"labfit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent, so Run is safe on every start-up.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.DatabaseError("migration "+step.Name+" failed", err)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps lists the schema statements in execution order
func Steps() []Step {
	return []Step{
		{Name: "create fit_results", SQL: createFitResultsTable},
		{Name: "add fit_results.iterations", SQL: addIterationsColumn},
		{Name: "create fit_results indexes", SQL: createIndexes},
	}
}

const createFitResultsTable = `
	CREATE TABLE IF NOT EXISTS fit_results (
		id UUID PRIMARY KEY,
		run_id UUID,
		title TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		family VARCHAR(50) NOT NULL,
		formula TEXT NOT NULL DEFAULT '',
		coefficient_names TEXT[] NOT NULL,
		estimates DOUBLE PRECISION[] NOT NULL,
		std_errors DOUBLE PRECISION[] NOT NULL,
		t_values DOUBLE PRECISION[] NOT NULL,
		p_values DOUBLE PRECISION[] NOT NULL,
		r_squared DOUBLE PRECISION NOT NULL,
		rss DOUBLE PRECISION NOT NULL DEFAULT 0,
		observations INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const addIterationsColumn = `
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'fit_results' AND column_name = 'iterations'
		) THEN
			ALTER TABLE fit_results ADD COLUMN iterations INTEGER NOT NULL DEFAULT 0;
		END IF;
	END $$;
`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_fit_results_run_id ON fit_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_fit_results_created_at ON fit_results(created_at DESC);
`
