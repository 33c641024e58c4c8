package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/partsflow/demandcast/internal/pipeline"
	"github.com/partsflow/demandcast/internal/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one forecast run",
	Long: `Execute the full forecast pipeline once and print the run state.

Product codes come from --codes, falling back to PIPELINE_PRODUCT_CODES.
Results are persisted when the database is configured.

Example:
  go run ./cmd/demandcast run --codes PLUG-001,PAD-204
  go run ./cmd/demandcast run --json`,
	RunE: runPipeline,
}

var (
	runCodes []string
	runJSON  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringSliceVar(&runCodes, "codes", nil, "product codes to forecast")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full run state as JSON")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	codes := runCodes
	if len(codes) == 0 {
		codes = a.cfg.Pipeline.ProductCodes
	}
	if len(codes) == 0 {
		return fmt.Errorf("no product codes given (use --codes or PIPELINE_PRODUCT_CODES)")
	}

	ctx := cmd.Context()
	state := a.orchestrator.Execute(ctx, codes)

	if a.runs != nil {
		if err := store.Migrate(ctx, a.db.Pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if err := a.runs.SaveRun(ctx, state); err != nil {
			a.log.WithError(err).Error("Failed to save run")
		}
		if err := a.forecasts.SaveForecasts(ctx, state.RunID, pipeline.SortedForecasts(state)); err != nil {
			a.log.WithError(err).Error("Failed to save forecasts")
		}
		if err := a.alerts.SaveAlerts(ctx, state.RunID, state.Alerts); err != nil {
			a.log.WithError(err).Error("Failed to save alerts")
		}
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return err
		}
	} else {
		fmt.Printf("Run %s finished at stage %s in %s\n", state.RunID, state.Stage, state.Duration)
		fmt.Printf("  forecasts: %d, alerts: %d, degraded SKUs: %d, degraded categories: %d\n",
			len(state.Forecasts), len(state.Alerts), len(state.DegradedSKUs), len(state.DegradedCategories))
		for _, fc := range pipeline.SortedForecasts(state) {
			fmt.Printf("  %-12s total %.0f (confidence %.2f)\n", fc.ProductCode, fc.TotalEstimate, fc.ModelConfidence)
		}
	}

	if state.Failed() {
		return fmt.Errorf("run failed: %s", state.FailureReason)
	}
	return nil
}
