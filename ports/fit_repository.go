package ports

import (
	"context"
	"time"

	"labfit/domain/core"
	"labfit/domain/fit"
)

// StoredFit is a fit result persisted together with its provenance
type StoredFit struct {
	ID        core.FitID  `json:"id"`
	RunID     core.RunID  `json:"run_id,omitempty"`
	Title     string      `json:"title"`
	Source    string      `json:"source,omitempty"`
	Result    *fit.Result `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}

// FitRepository persists fit results
type FitRepository interface {
	// Save stores a fit; an empty ID is assigned before saving
	Save(ctx context.Context, stored *StoredFit) error

	// Get retrieves a fit by ID, core.ErrFitNotFound when missing
	Get(ctx context.Context, id core.FitID) (*StoredFit, error)

	// List returns the most recent fits, optionally limited to one run
	List(ctx context.Context, runID core.RunID, limit int) ([]*StoredFit, error)
}
