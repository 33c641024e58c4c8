package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsflow/demandcast/internal/contracts"
)

// RunRepository persists run-level snapshots.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a run repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// RunSummary is the listing row for past runs.
type RunSummary struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	Stage         string    `json:"stage"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ProductCount  int       `json:"product_count"`
	DurationMS    int64     `json:"duration_ms"`
}

// SaveRun stores the terminal run state.
func (r *RunRepository) SaveRun(ctx context.Context, state *contracts.RunState) error {
	totals, err := json.Marshal(state.Totals)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}
	capacityJSON, err := json.Marshal(state.Capacity)
	if err != nil {
		return fmt.Errorf("marshal capacity: %w", err)
	}
	degradedSKUs, err := json.Marshal(state.DegradedSKUs)
	if err != nil {
		return fmt.Errorf("marshal degraded skus: %w", err)
	}
	degradedCats, err := json.Marshal(state.DegradedCategories)
	if err != nil {
		return fmt.Errorf("marshal degraded categories: %w", err)
	}
	notification, err := json.Marshal(state.Notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	query := `
		INSERT INTO forecast_runs
			(run_id, started_at, stage, failure_reason, product_codes, unavailable,
			 totals, capacity, degraded_skus, degraded_cats, notification, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id) DO UPDATE SET
			stage          = EXCLUDED.stage,
			failure_reason = EXCLUDED.failure_reason,
			totals         = EXCLUDED.totals,
			capacity       = EXCLUDED.capacity,
			degraded_skus  = EXCLUDED.degraded_skus,
			degraded_cats  = EXCLUDED.degraded_cats,
			notification   = EXCLUDED.notification,
			duration_ms    = EXCLUDED.duration_ms`

	_, err = r.pool.Exec(ctx, query,
		state.RunID, state.StartedAt, string(state.Stage), state.FailureReason,
		state.ProductCodes, state.Unavailable,
		totals, capacityJSON, degradedSKUs, degradedCats, notification,
		state.Duration.Milliseconds(),
	)
	return err
}

// GetRun loads a run snapshot by ID.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*contracts.RunState, error) {
	query := `
		SELECT run_id, started_at, stage, failure_reason, product_codes, unavailable,
			   totals, capacity, degraded_skus, degraded_cats, notification, duration_ms
		FROM forecast_runs
		WHERE run_id = $1`

	var state contracts.RunState
	var stage string
	var totals, capacityJSON, degradedSKUs, degradedCats, notification []byte
	var durationMS int64

	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&state.RunID, &state.StartedAt, &stage, &state.FailureReason,
		&state.ProductCodes, &state.Unavailable,
		&totals, &capacityJSON, &degradedSKUs, &degradedCats, &notification,
		&durationMS,
	)
	if err != nil {
		return nil, err
	}

	state.Stage = contracts.Stage(stage)
	state.Duration = time.Duration(durationMS) * time.Millisecond

	if err := json.Unmarshal(totals, &state.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	if err := json.Unmarshal(capacityJSON, &state.Capacity); err != nil {
		return nil, fmt.Errorf("unmarshal capacity: %w", err)
	}
	if err := json.Unmarshal(degradedSKUs, &state.DegradedSKUs); err != nil {
		return nil, fmt.Errorf("unmarshal degraded skus: %w", err)
	}
	if err := json.Unmarshal(degradedCats, &state.DegradedCategories); err != nil {
		return nil, fmt.Errorf("unmarshal degraded categories: %w", err)
	}
	if err := json.Unmarshal(notification, &state.Notification); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}

	return &state, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id, started_at, stage, failure_reason,
			   cardinality(product_codes), duration_ms
		FROM forecast_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.StartedAt, &s.Stage, &s.FailureReason, &s.ProductCount, &s.DurationMS); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
