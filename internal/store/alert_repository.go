package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsflow/demandcast/internal/contracts"
)

// AlertRepository persists the alerts emitted by a run.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates an alert repository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// SaveAlerts stores a run's alerts in one batch, assigning IDs.
func (r *AlertRepository) SaveAlerts(ctx context.Context, runID string, alerts []contracts.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	query := `
		INSERT INTO alerts
			(id, run_id, alert_type, severity, message, affected_products,
			 affected_categories, action_required, priority_score, metadata, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	batch := &pgx.Batch{}
	for _, a := range alerts {
		id := a.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("marshal alert metadata: %w", err)
		}
		batch.Queue(query,
			id, runID, string(a.Type), string(a.Severity), a.Message,
			a.AffectedProducts, a.AffectedCategories, a.ActionRequired,
			a.PriorityScore, metadata, a.Source, a.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range alerts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListAlerts returns alerts filtered by optional severity and type, highest
// priority first.
func (r *AlertRepository) ListAlerts(ctx context.Context, severity, alertType string, limit int) ([]contracts.Alert, error) {
	query := `
		SELECT id, alert_type, severity, message, affected_products,
			   affected_categories, action_required, priority_score, metadata, source, created_at
		FROM alerts
		WHERE ($1 = '' OR severity = $1)
		  AND ($2 = '' OR alert_type = $2)
		ORDER BY priority_score DESC, created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, severity, alertType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListRunAlerts returns every alert of one run in stored priority order.
func (r *AlertRepository) ListRunAlerts(ctx context.Context, runID string) ([]contracts.Alert, error) {
	query := `
		SELECT id, alert_type, severity, message, affected_products,
			   affected_categories, action_required, priority_score, metadata, source, created_at
		FROM alerts
		WHERE run_id = $1
		ORDER BY priority_score DESC, severity, alert_type`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func scanAlerts(rows pgx.Rows) ([]contracts.Alert, error) {
	var alerts []contracts.Alert
	for rows.Next() {
		var a contracts.Alert
		var alertType, severity string
		var metadata []byte
		if err := rows.Scan(
			&a.ID, &alertType, &severity, &a.Message, &a.AffectedProducts,
			&a.AffectedCategories, &a.ActionRequired, &a.PriorityScore,
			&metadata, &a.Source, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Type = contracts.AlertType(alertType)
		a.Severity = contracts.Severity(severity)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal alert metadata: %w", err)
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
