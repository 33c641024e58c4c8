package jobs

import (
	"context"
	"fmt"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/internal/pipeline"
	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/pkg/logger"
)

// ForecastJob runs the demand-forecast pipeline daily and persists the
// resulting run, forecasts, and alerts.
// Schedule: 6:00 AM, before the business day starts.
type ForecastJob struct {
	orchestrator *pipeline.Orchestrator
	runs         *store.RunRepository
	forecasts    *store.ForecastRepository
	alerts       *store.AlertRepository
	productCodes []string
	logger       *logger.Logger
}

// NewForecastJob creates a new forecast job. Repositories may be nil when the
// database is not configured; the run then executes without persistence.
func NewForecastJob(
	orchestrator *pipeline.Orchestrator,
	runs *store.RunRepository,
	forecasts *store.ForecastRepository,
	alerts *store.AlertRepository,
	productCodes []string,
	log *logger.Logger,
) *ForecastJob {
	return &ForecastJob{
		orchestrator: orchestrator,
		runs:         runs,
		forecasts:    forecasts,
		alerts:       alerts,
		productCodes: productCodes,
		logger:       log,
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "demand_forecast"
}

// Schedule returns the cron schedule (6:00 AM daily, with seconds)
func (j *ForecastJob) Schedule() string {
	return "0 0 6 * * *"
}

// Run executes the pipeline for the configured product universe.
func (j *ForecastJob) Run(ctx context.Context) error {
	if len(j.productCodes) == 0 {
		j.logger.Warn("No product codes configured, skipping forecast run")
		return nil
	}

	j.logger.WithField("products", len(j.productCodes)).Info("Starting scheduled forecast run")

	state := j.orchestrator.Execute(ctx, j.productCodes)

	if err := j.persist(ctx, state); err != nil {
		return fmt.Errorf("persist run %s: %w", state.RunID, err)
	}

	if state.Failed() {
		return fmt.Errorf("forecast run %s failed: %s", state.RunID, state.FailureReason)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    state.RunID,
		"forecasts": len(state.Forecasts),
		"alerts":    len(state.Alerts),
	}).Info("Scheduled forecast run completed")

	return nil
}

func (j *ForecastJob) persist(ctx context.Context, state *contracts.RunState) error {
	if j.runs == nil {
		j.logger.Debug("Persistence disabled, skipping run save")
		return nil
	}

	if err := j.runs.SaveRun(ctx, state); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := j.forecasts.SaveForecasts(ctx, state.RunID, pipeline.SortedForecasts(state)); err != nil {
		return fmt.Errorf("save forecasts: %w", err)
	}
	if err := j.alerts.SaveAlerts(ctx, state.RunID, state.Alerts); err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	return nil
}
