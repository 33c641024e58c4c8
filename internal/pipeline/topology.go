package pipeline

import (
	"fmt"

	"github.com/partsflow/demandcast/internal/contracts"
)

// StageSpec declares one stage of the pipeline DAG: which run-state fields it
// reads, which it writes, and the key it fans out on. Writes are ordered:
// within a stage, earlier entries are fully populated before later ones (this
// is how insight-before-fan-out is declared, not just implemented).
type StageSpec struct {
	Stage  contracts.Stage
	Reads  []string
	Writes []string
	// FanOutKey names the per-item parallelism unit, empty for sequential
	// stages.
	FanOutKey string
}

// Topology is the declared execution graph. Tests assert ordering properties
// against this declaration; the orchestrator must implement it.
func Topology() []StageSpec {
	return []StageSpec{
		{
			Stage:  contracts.StageCollecting,
			Reads:  []string{"product_codes"},
			Writes: []string{"internal_data", "supply_chain_risk", "context_ready", "unavailable_sources"},
		},
		{
			Stage:  contracts.StageSplit,
			Reads:  []string{"product_codes", "internal_data"},
			Writes: []string{"category_batches", "degraded_skus"},
		},
		{
			Stage:     contracts.StageCategoryProcessing,
			Reads:     []string{"category_batches", "internal_data"},
			Writes:    []string{"category_insights", "product_forecasts", "degraded_skus", "degraded_categories"},
			FanOutKey: "category_id",
		},
		{
			Stage:  contracts.StageAggregating,
			Reads:  []string{"product_forecasts", "degraded_skus"},
			Writes: []string{"forecast_totals"},
		},
		{
			Stage:  contracts.StageOutputBuilding,
			Reads:  []string{"forecast_totals", "product_forecasts", "supply_chain_risk", "internal_data"},
			Writes: []string{"capacity_analysis", "production_suggestions", "alerts", "notification"},
		},
	}
}

// ValidateTopology checks that every field a stage reads was produced by an
// earlier stage or is run input.
func ValidateTopology(specs []StageSpec) error {
	available := map[string]bool{"product_codes": true}

	for _, spec := range specs {
		for _, field := range spec.Reads {
			if !available[field] {
				return fmt.Errorf("stage %s reads %q before any stage writes it", spec.Stage, field)
			}
		}
		for _, field := range spec.Writes {
			available[field] = true
		}
	}
	return nil
}

// WritesBefore reports whether the stage declares first to be fully written
// before second. Both fields must belong to the stage.
func (s StageSpec) WritesBefore(first, second string) bool {
	fi, si := -1, -1
	for i, field := range s.Writes {
		if field == first {
			fi = i
		}
		if field == second {
			si = i
		}
	}
	return fi >= 0 && si >= 0 && fi < si
}
