package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/densitymap-backend-go/internal/models"
)

// MaxRunPage caps the number of runs returned by one List call
const MaxRunPage = 500

// RunRepository handles database operations for density run history
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and sets its ID
func (r *RunRepository) Create(ctx context.Context, run *models.DensityRun) error {
	query := `
		INSERT INTO density_runs (
			request_id, fingerprint, sample_count, resolution, fudge,
			true_value, categorical, threshold, positive_count,
			status, duration_ms, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		run.RequestID,
		run.Fingerprint,
		run.SampleCount,
		run.Resolution,
		run.Fudge,
		run.TrueValue,
		run.Categorical,
		run.Threshold,
		run.PositiveCount,
		run.Status,
		run.DurationMs,
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create density run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// List retrieves runs, newest first
func (r *RunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.DensityRun, error) {
	query := `
		SELECT id, request_id, fingerprint, sample_count, resolution, fudge,
			   true_value, categorical, threshold, positive_count,
			   status, duration_ms, error_message, created_at
		FROM density_runs
		WHERE 1=1
	`
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Fingerprint != "" {
		query += " AND fingerprint = ?"
		args = append(args, filter.Fingerprint)
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxRunPage {
		limit = MaxRunPage
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query density runs: %w", err)
	}
	defer rows.Close()

	runs := []models.DensityRun{}
	for rows.Next() {
		var run models.DensityRun
		if err := rows.Scan(
			&run.ID,
			&run.RequestID,
			&run.Fingerprint,
			&run.SampleCount,
			&run.Resolution,
			&run.Fudge,
			&run.TrueValue,
			&run.Categorical,
			&run.Threshold,
			&run.PositiveCount,
			&run.Status,
			&run.DurationMs,
			&run.ErrorMessage,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan density run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating density runs: %w", err)
	}
	return runs, nil
}
