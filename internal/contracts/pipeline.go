package contracts

import "time"

// Pipeline stage definitions (SSOT).
// Every log line, snapshot, and DB row uses these constants.
//
// Pipeline flow:
//   COLLECTING → SPLIT → CATEGORY_PROCESSING → AGGREGATING → OUTPUT_BUILDING → COMPLETED
// or FAILED when all data-collection sources are exhausted.

// Stage represents a pipeline stage.
type Stage string

const (
	// StageCollecting fetches internal, supply-chain-risk, and external
	// context data concurrently.
	// Location: internal/collect/
	StageCollecting Stage = "COLLECTING"

	// StageSplit groups product codes into category batches.
	// Location: internal/category/splitter.go
	StageSplit Stage = "SPLIT"

	// StageCategoryProcessing runs context retrieval + insight analysis once
	// per category, then fans out per-SKU fuse+forecast.
	// Location: internal/category/, internal/product/
	StageCategoryProcessing Stage = "CATEGORY_PROCESSING"

	// StageAggregating merges all per-SKU forecasts into run-level totals.
	// Location: internal/pipeline/orchestrator.go
	StageAggregating Stage = "AGGREGATING"

	// StageOutputBuilding runs capacity analysis, alert generation, and
	// notification assembly.
	// Location: internal/capacity/, internal/alerting/
	StageOutputBuilding Stage = "OUTPUT_BUILDING"

	// StageCompleted is the successful terminal state.
	StageCompleted Stage = "COMPLETED"

	// StageFailed is the fatal terminal state. Only reachable when every
	// data-collection source is unavailable at once.
	StageFailed Stage = "FAILED"
)

// String returns the stage name.
func (s Stage) String() string {
	return string(s)
}

// Terminal reports whether the stage is a terminal state.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// AllStages returns the non-terminal pipeline stages in execution order.
func AllStages() []Stage {
	return []Stage{
		StageCollecting,
		StageSplit,
		StageCategoryProcessing,
		StageAggregating,
		StageOutputBuilding,
	}
}

// Machine-readable degradation reasons.
const (
	ReasonUnresolvedCategory  = "unresolved_category"
	ReasonInsufficientHistory = "insufficient_history"
	ReasonForecastError       = "forecast_error"
	ReasonTimedOut            = "timed_out"
	ReasonContextExhausted    = "context_retrieval_exhausted"
	ReasonAnalysisExhausted   = "insight_analysis_exhausted"
)

// Fatal failure reasons.
const (
	FailureDataCollectionExhausted = "data_collection_exhausted"
)

// DegradedSKU records a SKU that could not complete a stage normally.
// It is excluded from aggregation but reported in the run output.
type DegradedSKU struct {
	ProductCode string `json:"product_code"`
	Category    string `json:"category,omitempty"`
	Reason      string `json:"reason"`
	Detail      string `json:"detail,omitempty"`
}

// DegradedCategory records a category whose insight fell back to neutral.
// Member SKUs still forecast, just without market adjustment.
type DegradedCategory struct {
	CategoryID string `json:"category_id"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// RunState is the single mutable record threading through the pipeline for
// one execution. Fields are written once by their producing stage and read
// by later stages; concurrent branches never write the same key twice.
type RunState struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Stage     Stage     `json:"stage"`

	// Input, immutable after start.
	ProductCodes []string `json:"product_codes"`

	// COLLECTING outputs. A nil pointer means that source was demoted to
	// "unavailable" rather than failing the run.
	Internal    *InternalData    `json:"internal_data,omitempty"`
	SupplyChain *SupplyChainRisk `json:"supply_chain_risk,omitempty"`
	// ContextReady reports whether the external context store answered the
	// collection-phase probe.
	ContextReady bool `json:"context_ready"`
	// Unavailable lists data sources demoted during COLLECTING.
	Unavailable []string `json:"unavailable_sources,omitempty"`

	// SPLIT outputs.
	CategoryBatches []CategoryBatch `json:"category_batches,omitempty"`

	// CATEGORY_PROCESSING outputs. Both maps are append-once per key.
	CategoryInsights map[string]CategoryInsight `json:"category_insights,omitempty"`
	Forecasts        map[string]ProductForecast `json:"product_forecasts,omitempty"`

	// AGGREGATING outputs.
	Totals *ForecastTotals `json:"forecast_totals,omitempty"`

	// OUTPUT_BUILDING outputs.
	Capacity     *CapacityAnalysis `json:"capacity_analysis,omitempty"`
	Suggestions  []Suggestion      `json:"production_suggestions,omitempty"`
	Alerts       []Alert           `json:"alerts,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`

	// Degradation bookkeeping.
	DegradedSKUs       []DegradedSKU      `json:"degraded_skus,omitempty"`
	DegradedCategories []DegradedCategory `json:"degraded_categories,omitempty"`

	// Terminal bookkeeping.
	FailureReason   string        `json:"failure_reason,omitempty"`
	CompletedStages []Stage       `json:"completed_stages"`
	Duration        time.Duration `json:"duration"`
}

// NewRunState creates a run state in its initial stage.
func NewRunState(runID string, productCodes []string) *RunState {
	return &RunState{
		RunID:            runID,
		StartedAt:        time.Now(),
		Stage:            StageCollecting,
		ProductCodes:     productCodes,
		CategoryInsights: make(map[string]CategoryInsight),
		Forecasts:        make(map[string]ProductForecast),
		CompletedStages:  make([]Stage, 0, len(AllStages())),
	}
}

// Failed reports whether the run ended in the fatal terminal state.
func (rs *RunState) Failed() bool {
	return rs.Stage == StageFailed
}

// DegradeSKU records a degraded SKU with a machine-readable reason.
func (rs *RunState) DegradeSKU(code, category, reason, detail string) {
	rs.DegradedSKUs = append(rs.DegradedSKUs, DegradedSKU{
		ProductCode: code,
		Category:    category,
		Reason:      reason,
		Detail:      detail,
	})
}

// DegradeCategory records a category that fell back to a neutral insight.
func (rs *RunState) DegradeCategory(categoryID, reason, detail string) {
	rs.DegradedCategories = append(rs.DegradedCategories, DegradedCategory{
		CategoryID: categoryID,
		Reason:     reason,
		Detail:     detail,
	})
}
