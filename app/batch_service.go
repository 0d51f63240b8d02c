package app

import (
	"context"
	"time"

	"labfit/domain/core"
	"labfit/domain/fit"
	"labfit/domain/table"
	"labfit/internal"
	"labfit/ports"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one planned fit. Exactly one of Result and Err is set.
type Outcome struct {
	Dataset string
	Title   string
	Result  *fit.Result
	Err     error
}

// BatchService runs fit plans. Each dataset is loaded once and its fits run
// concurrently with at most workers in flight.
type BatchService struct {
	source  ports.TableReader
	fits    *FitService
	repo    ports.FitRepository
	workers int
	logger  *internal.Logger
}

func NewBatchService(source ports.TableReader, fits *FitService, workers int, logger *internal.Logger) *BatchService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchService{
		source:  source,
		fits:    fits,
		workers: workers,
		logger:  logger.With("batch"),
	}
}

// WithRepository enables Save
func (b *BatchService) WithRepository(repo ports.FitRepository) *BatchService {
	b.repo = repo
	return b
}

// Run executes every fit of the plan and returns the outcomes in plan order.
// Failing loads or fits are reported in their outcomes; only cancellation of
// ctx fails the run as a whole.
func (b *BatchService) Run(ctx context.Context, plan *Plan) ([]Outcome, error) {
	outcomes := make([]Outcome, plan.NumFits())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	idx := 0
	for _, ds := range plan.Datasets {
		path := plan.Path(ds.File)
		tbl, loadErr := b.source.ReadTable(ctx, path, ds.Columns)
		if loadErr != nil {
			b.logger.Warn("loading %s: %v", path, loadErr)
		}

		for j, f := range ds.Fits {
			f := f
			slot := idx
			idx++
			outcomes[slot] = Outcome{Dataset: ds.File, Title: f.Label(j)}
			if loadErr != nil {
				outcomes[slot].Err = loadErr
				continue
			}

			g.Go(func() error {
				res, err := b.runFit(gctx, tbl, f)
				outcomes[slot].Result, outcomes[slot].Err = res, err
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	b.logger.Info("plan %q: %d fits, %d failed", plan.Title, len(outcomes), failed)
	return outcomes, nil
}

func (b *BatchService) runFit(ctx context.Context, tbl *table.Table, f FitPlan) (*fit.Result, error) {
	spec, err := f.Spec()
	if err != nil {
		return nil, err
	}
	return b.fits.FitTable(ctx, tbl, f.X, f.Y, spec)
}

// Save stores the successful outcomes under a new run ID
func (b *BatchService) Save(ctx context.Context, outcomes []Outcome) (core.RunID, error) {
	if b.repo == nil {
		return "", core.NewArgumentError("no result store configured")
	}
	runID := core.NewRunID()
	now := time.Now().UTC()
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		stored := &ports.StoredFit{
			RunID:     runID,
			Title:     o.Title,
			Source:    o.Dataset,
			Result:    o.Result,
			CreatedAt: now,
		}
		if err := b.repo.Save(ctx, stored); err != nil {
			return runID, err
		}
	}
	return runID, nil
}
