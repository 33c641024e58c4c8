package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the persistence schema when it does not exist yet.
// Run once at startup; safe to call repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id          UUID PRIMARY KEY,
			started_at      TIMESTAMPTZ NOT NULL,
			stage           TEXT NOT NULL,
			failure_reason  TEXT NOT NULL DEFAULT '',
			product_codes   TEXT[] NOT NULL,
			unavailable     TEXT[],
			totals          JSONB,
			capacity        JSONB,
			degraded_skus   JSONB,
			degraded_cats   JSONB,
			notification    JSONB,
			duration_ms     BIGINT NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS product_forecasts (
			run_id             UUID NOT NULL REFERENCES forecast_runs(run_id) ON DELETE CASCADE,
			product_code       TEXT NOT NULL,
			product_name       TEXT NOT NULL DEFAULT '',
			category_id        TEXT NOT NULL,
			horizon            JSONB NOT NULL,
			total_estimate     DOUBLE PRECISION NOT NULL,
			adjustment_applied DOUBLE PRECISION NOT NULL,
			model_confidence   DOUBLE PRECISION NOT NULL,
			method             TEXT NOT NULL,
			created_at         TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, product_code)
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id                  UUID PRIMARY KEY,
			run_id              UUID REFERENCES forecast_runs(run_id) ON DELETE CASCADE,
			alert_type          TEXT NOT NULL,
			severity            TEXT NOT NULL,
			message             TEXT NOT NULL,
			affected_products   TEXT[],
			affected_categories TEXT[],
			action_required     TEXT NOT NULL DEFAULT '',
			priority_score      INT NOT NULL,
			metadata            JSONB,
			source              TEXT NOT NULL DEFAULT '',
			created_at          TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_run ON alerts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity, priority_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_forecasts_category ON product_forecasts(category_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
