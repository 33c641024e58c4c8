package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsflow/demandcast/internal/contracts"
)

// ForecastRepository persists per-SKU forecasts.
type ForecastRepository struct {
	pool *pgxpool.Pool
}

// NewForecastRepository creates a forecast repository.
func NewForecastRepository(pool *pgxpool.Pool) *ForecastRepository {
	return &ForecastRepository{pool: pool}
}

// SaveForecasts stores every forecast of a run in one batch.
func (r *ForecastRepository) SaveForecasts(ctx context.Context, runID string, forecasts []contracts.ProductForecast) error {
	if len(forecasts) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_forecasts
			(run_id, product_code, product_name, category_id, horizon,
			 total_estimate, adjustment_applied, model_confidence, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, product_code) DO UPDATE SET
			horizon            = EXCLUDED.horizon,
			total_estimate     = EXCLUDED.total_estimate,
			adjustment_applied = EXCLUDED.adjustment_applied,
			model_confidence   = EXCLUDED.model_confidence,
			method             = EXCLUDED.method`

	batch := &pgx.Batch{}
	for _, fc := range forecasts {
		horizon, err := json.Marshal(fc.Horizon)
		if err != nil {
			return fmt.Errorf("marshal horizon for %s: %w", fc.ProductCode, err)
		}
		batch.Queue(query,
			runID, fc.ProductCode, fc.ProductName, fc.CategoryID, horizon,
			fc.TotalEstimate, fc.AdjustmentApplied, fc.ModelConfidence, fc.Method, fc.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range forecasts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetForecasts loads every forecast of a run, ordered by product code.
func (r *ForecastRepository) GetForecasts(ctx context.Context, runID string) ([]contracts.ProductForecast, error) {
	query := `
		SELECT product_code, product_name, category_id, horizon,
			   total_estimate, adjustment_applied, model_confidence, method, created_at
		FROM product_forecasts
		WHERE run_id = $1
		ORDER BY product_code`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []contracts.ProductForecast
	for rows.Next() {
		var fc contracts.ProductForecast
		var horizon []byte
		if err := rows.Scan(
			&fc.ProductCode, &fc.ProductName, &fc.CategoryID, &horizon,
			&fc.TotalEstimate, &fc.AdjustmentApplied, &fc.ModelConfidence, &fc.Method, &fc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(horizon, &fc.Horizon); err != nil {
			return nil, fmt.Errorf("unmarshal horizon for %s: %w", fc.ProductCode, err)
		}
		forecasts = append(forecasts, fc)
	}
	return forecasts, rows.Err()
}

// GetLatestForecast returns the newest forecast for a SKU across runs.
func (r *ForecastRepository) GetLatestForecast(ctx context.Context, productCode string) (*contracts.ProductForecast, error) {
	query := `
		SELECT product_code, product_name, category_id, horizon,
			   total_estimate, adjustment_applied, model_confidence, method, created_at
		FROM product_forecasts
		WHERE product_code = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var fc contracts.ProductForecast
	var horizon []byte
	err := r.pool.QueryRow(ctx, query, productCode).Scan(
		&fc.ProductCode, &fc.ProductName, &fc.CategoryID, &horizon,
		&fc.TotalEstimate, &fc.AdjustmentApplied, &fc.ModelConfidence, &fc.Method, &fc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(horizon, &fc.Horizon); err != nil {
		return nil, fmt.Errorf("unmarshal horizon: %w", err)
	}
	return &fc, nil
}
