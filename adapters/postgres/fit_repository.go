package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"labfit/domain/core"
	"labfit/domain/fit"
	apperrors "labfit/internal/errors"
	"labfit/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// FitRepository implements ports.FitRepository for PostgreSQL
type FitRepository struct {
	db *sqlx.DB
}

// NewFitRepository creates a new PostgreSQL fit result repository
func NewFitRepository(db *sqlx.DB) ports.FitRepository {
	return &FitRepository{db: db}
}

// fitRow mirrors the fit_results table
type fitRow struct {
	ID               uuid.UUID       `db:"id"`
	RunID            uuid.NullUUID   `db:"run_id"`
	Title            string          `db:"title"`
	Source           string          `db:"source"`
	Family           string          `db:"family"`
	Formula          string          `db:"formula"`
	CoefficientNames pq.StringArray  `db:"coefficient_names"`
	Estimates        pq.Float64Array `db:"estimates"`
	StdErrors        pq.Float64Array `db:"std_errors"`
	TValues          pq.Float64Array `db:"t_values"`
	PValues          pq.Float64Array `db:"p_values"`
	RSquared         float64         `db:"r_squared"`
	RSS              float64         `db:"rss"`
	Observations     int             `db:"observations"`
	Iterations       int             `db:"iterations"`
	CreatedAt        time.Time       `db:"created_at"`
}

const selectFitColumns = `
	SELECT id, run_id, title, source, family, formula, coefficient_names,
		estimates, std_errors, t_values, p_values, r_squared, rss,
		observations, iterations, created_at
	FROM fit_results
`

// Save stores a fit result, assigning an ID and timestamp when missing
func (r *FitRepository) Save(ctx context.Context, stored *ports.StoredFit) error {
	if stored == nil || stored.Result == nil {
		return core.NewArgumentError("nothing to save")
	}
	if stored.ID.String() == "" {
		stored.ID = core.NewFitID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	row, err := toRow(stored)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO fit_results (id, run_id, title, source, family, formula, coefficient_names,
			estimates, std_errors, t_values, p_values, r_squared, rss, observations, iterations, created_at)
		VALUES (:id, :run_id, :title, :source, :family, :formula, :coefficient_names,
			:estimates, :std_errors, :t_values, :p_values, :r_squared, :rss, :observations, :iterations, :created_at)
	`, row)
	if err != nil {
		return apperrors.DatabaseError("failed to save fit result", err)
	}
	return nil
}

// Get retrieves a fit result by ID
func (r *FitRepository) Get(ctx context.Context, id core.FitID) (*ports.StoredFit, error) {
	uid, err := uuid.Parse(id.String())
	if err != nil {
		return nil, core.NewArgumentError("fit ID %q is not a UUID", id)
	}

	var row fitRow
	if err := r.db.GetContext(ctx, &row, selectFitColumns+` WHERE id = $1`, uid); err != nil {
		return nil, getError(id, err)
	}
	return fromRow(row)
}

// getError maps a failed single-row lookup onto the store's error taxonomy
func getError(id core.FitID, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewFitNotFoundError(id.String())
	}
	return apperrors.DatabaseError("failed to load fit result", err)
}

// List returns the newest fit results, optionally limited to one run
func (r *FitRepository) List(ctx context.Context, runID core.RunID, limit int) ([]*ports.StoredFit, error) {
	query := selectFitColumns
	args := []interface{}{}

	if runID.String() != "" {
		uid, err := uuid.Parse(runID.String())
		if err != nil {
			return nil, core.NewArgumentError("run ID %q is not a UUID", runID)
		}
		query += ` WHERE run_id = $1`
		args = append(args, uid)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var rows []fitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list fit results", err)
	}

	out := make([]*ports.StoredFit, 0, len(rows))
	for _, row := range rows {
		stored, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func toRow(s *ports.StoredFit) (fitRow, error) {
	id, err := uuid.Parse(s.ID.String())
	if err != nil {
		return fitRow{}, core.NewArgumentError("fit ID %q is not a UUID", s.ID)
	}
	row := fitRow{
		ID:           id,
		Title:        s.Title,
		Source:       s.Source,
		Family:       string(s.Result.Family),
		Formula:      s.Result.Formula,
		RSquared:     s.Result.RSquared,
		RSS:          s.Result.RSS,
		Observations: s.Result.Observations,
		Iterations:   s.Result.Iterations,
		CreatedAt:    s.CreatedAt,
	}
	if s.RunID.String() != "" {
		runID, err := uuid.Parse(s.RunID.String())
		if err != nil {
			return fitRow{}, core.NewArgumentError("run ID %q is not a UUID", s.RunID)
		}
		row.RunID = uuid.NullUUID{UUID: runID, Valid: true}
	}

	n := len(s.Result.Coefficients)
	row.CoefficientNames = make(pq.StringArray, n)
	row.Estimates = make(pq.Float64Array, n)
	row.StdErrors = make(pq.Float64Array, n)
	row.TValues = make(pq.Float64Array, n)
	row.PValues = make(pq.Float64Array, n)
	for i, c := range s.Result.Coefficients {
		row.CoefficientNames[i] = c.Name
		row.Estimates[i] = c.Estimate
		row.StdErrors[i] = c.StdError
		row.TValues[i] = c.TValue
		row.PValues[i] = c.PValue
	}
	return row, nil
}

func fromRow(row fitRow) (*ports.StoredFit, error) {
	n := len(row.CoefficientNames)
	if len(row.Estimates) != n || len(row.StdErrors) != n || len(row.TValues) != n || len(row.PValues) != n {
		return nil, apperrors.DatabaseError("fit result "+row.ID.String()+" has inconsistent coefficient arrays", nil)
	}

	coefs := make([]fit.Coefficient, n)
	for i := range coefs {
		coefs[i] = fit.Coefficient{
			Name:     row.CoefficientNames[i],
			Estimate: row.Estimates[i],
			StdError: row.StdErrors[i],
			TValue:   row.TValues[i],
			PValue:   row.PValues[i],
		}
	}

	stored := &ports.StoredFit{
		ID:     core.FitID(row.ID.String()),
		Title:  row.Title,
		Source: row.Source,
		Result: &fit.Result{
			Family:       fit.Family(row.Family),
			Formula:      row.Formula,
			Coefficients: coefs,
			RSquared:     row.RSquared,
			RSS:          row.RSS,
			Observations: row.Observations,
			Iterations:   row.Iterations,
		},
		CreatedAt: row.CreatedAt,
	}
	if row.RunID.Valid {
		stored.RunID = core.RunID(row.RunID.UUID.String())
	}
	return stored, nil
}
