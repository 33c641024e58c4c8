package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partsflow/demandcast/internal/alerting"
	"github.com/partsflow/demandcast/internal/capacity"
	"github.com/partsflow/demandcast/internal/category"
	"github.com/partsflow/demandcast/internal/collect"
	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/internal/product"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

// insightRetries is how many times a failed market analysis is retried before
// the category degrades to a neutral insight.
const (
	insightRetries = 2
	insightBackoff = time.Second
)

// Orchestrator coordinates the 5-stage forecast pipeline
// SSOT: pipeline coordination happens only here.
//
// COLLECTING → SPLIT → CATEGORY_PROCESSING → AGGREGATING → OUTPUT_BUILDING
type Orchestrator struct {
	// Stage components
	collector *collect.Collector
	splitter  *category.Splitter
	retriever *category.Retriever
	analyzer  contracts.MarketAnalyzer
	fuser     *product.Fuser
	engine    *product.Engine
	capacity  *capacity.Analyzer
	alerts    *alerting.Generator
	notifier  contracts.Notifier

	cfg    config.PipelineConfig
	logger *logger.Logger
}

// NewOrchestrator wires the stage components together.
func NewOrchestrator(
	collector *collect.Collector,
	splitter *category.Splitter,
	retriever *category.Retriever,
	analyzer contracts.MarketAnalyzer,
	fuser *product.Fuser,
	engine *product.Engine,
	capacityAnalyzer *capacity.Analyzer,
	alertGenerator *alerting.Generator,
	notifier contracts.Notifier,
	cfg config.PipelineConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		collector: collector,
		splitter:  splitter,
		retriever: retriever,
		analyzer:  analyzer,
		fuser:     fuser,
		engine:    engine,
		capacity:  capacityAnalyzer,
		alerts:    alertGenerator,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log.WithField("component", "orchestrator"),
	}
}

// Execute runs the complete pipeline for the given product codes and returns
// the terminal run state. The run is fatal only when every data-collection
// source is unavailable; all other failures degrade.
func (o *Orchestrator) Execute(ctx context.Context, productCodes []string) *contracts.RunState {
	state := contracts.NewRunState(uuid.New().String(), productCodes)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunDeadline)
	defer cancel()

	o.logger.WithFields(map[string]interface{}{
		"run_id":   state.RunID,
		"products": len(productCodes),
		"horizon":  o.cfg.HorizonPeriods,
	}).Info("Starting pipeline run")

	if fatal := o.runCollecting(ctx, state); fatal {
		state.Stage = contracts.StageFailed
		state.FailureReason = contracts.FailureDataCollectionExhausted
		state.Duration = time.Since(state.StartedAt)
		o.logger.WithField("run_id", state.RunID).Error("Pipeline run failed: all data sources exhausted")
		return state
	}
	o.completeStage(state, contracts.StageSplit)

	o.runSplit(state)
	o.completeStage(state, contracts.StageCategoryProcessing)

	o.runCategoryProcessing(ctx, state)
	o.completeStage(state, contracts.StageAggregating)

	o.runAggregating(state)
	o.completeStage(state, contracts.StageOutputBuilding)

	o.runOutputBuilding(ctx, state)

	state.CompletedStages = append(state.CompletedStages, contracts.StageOutputBuilding)
	state.Stage = contracts.StageCompleted
	state.Duration = time.Since(state.StartedAt)

	o.logger.WithFields(map[string]interface{}{
		"run_id":    state.RunID,
		"forecasts": len(state.Forecasts),
		"degraded":  len(state.DegradedSKUs),
		"alerts":    len(state.Alerts),
		"duration":  state.Duration.Seconds(),
	}).Info("Pipeline run completed")

	return state
}

// completeStage records the finished stage and advances to the next.
func (o *Orchestrator) completeStage(state *contracts.RunState, next contracts.Stage) {
	state.CompletedStages = append(state.CompletedStages, state.Stage)
	state.Stage = next
}

// runCollecting executes COLLECTING. Returns true when the run is fatal.
func (o *Orchestrator) runCollecting(ctx context.Context, state *contracts.RunState) bool {
	o.logger.Info("Running COLLECTING")

	result := o.collector.Collect(ctx, state.ProductCodes)
	state.Internal = result.Internal
	state.SupplyChain = result.SupplyChain
	state.ContextReady = result.ContextReady
	state.Unavailable = result.Unavailable

	return result.Exhausted()
}

// runSplit executes SPLIT: deterministic category batching.
func (o *Orchestrator) runSplit(state *contracts.RunState) {
	o.logger.Info("Running SPLIT")

	batches, degraded := o.splitter.Split(state.ProductCodes, state.Internal)
	state.CategoryBatches = batches
	state.DegradedSKUs = append(state.DegradedSKUs, degraded...)
}

// runCategoryProcessing executes CATEGORY_PROCESSING: category batches run
// against each other in parallel; within a batch, the single context+insight
// computation completes before per-SKU forecasting fans out.
func (o *Orchestrator) runCategoryProcessing(ctx context.Context, state *contracts.RunState) {
	o.logger.WithField("categories", len(state.CategoryBatches)).Info("Running CATEGORY_PROCESSING")

	memo := category.NewInsightMemo(o.retriever, o.analyzer, insightRetries, insightBackoff, o.logger)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, batch := range state.CategoryBatches {
		wg.Add(1)
		go func(batch contracts.CategoryBatch) {
			defer wg.Done()
			o.processCategory(ctx, state, &mu, memo, batch)
		}(batch)
	}

	wg.Wait()
}

// processCategory computes the batch's shared insight, then forecasts its
// SKUs in parallel. Every write to the run state goes through mu.
func (o *Orchestrator) processCategory(ctx context.Context, state *contracts.RunState, mu *sync.Mutex, memo *category.InsightMemo, batch contracts.CategoryBatch) {
	// Insight before fan-out: every SKU in the batch observes the identical
	// insight value.
	res := memo.Insight(ctx, batch)

	mu.Lock()
	state.CategoryInsights[batch.CategoryID] = res.Insight
	if res.Degraded != nil {
		state.DegradeCategory(res.Degraded.CategoryID, res.Degraded.Reason, res.Degraded.Detail)
	}
	mu.Unlock()

	contexts, degraded := o.fuser.Fuse(batch, state.Internal, res.Insight)
	if len(degraded) > 0 {
		mu.Lock()
		state.DegradedSKUs = append(state.DegradedSKUs, degraded...)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, sc := range contexts {
		wg.Add(1)
		go func(sc contracts.SkuContext) {
			defer wg.Done()

			if ctx.Err() != nil {
				mu.Lock()
				state.DegradeSKU(sc.ProductCode, sc.CategoryID, contracts.ReasonTimedOut, ctx.Err().Error())
				mu.Unlock()
				return
			}

			forecast, err := o.engine.Forecast(sc, o.cfg.HorizonPeriods)
			if err != nil {
				o.logger.WithError(err).WithField("product_code", sc.ProductCode).Warn("Forecast failed")
				mu.Lock()
				state.DegradeSKU(sc.ProductCode, sc.CategoryID, contracts.ReasonForecastError, err.Error())
				mu.Unlock()
				return
			}

			mu.Lock()
			state.Forecasts[sc.ProductCode] = forecast
			mu.Unlock()
		}(sc)
	}
	wg.Wait()
}

// runAggregating executes AGGREGATING: merges every completed forecast into
// run-level totals. Degraded SKUs are counted, never interpolated.
func (o *Orchestrator) runAggregating(state *contracts.RunState) {
	o.logger.WithField("forecasts", len(state.Forecasts)).Info("Running AGGREGATING")

	totals := &contracts.ForecastTotals{
		ProductCount:   len(state.Forecasts),
		DegradedCount:  len(state.DegradedSKUs),
		HorizonPeriods: o.cfg.HorizonPeriods,
	}

	categories := make(map[string]bool)
	confidenceSum := 0.0
	for _, fc := range state.Forecasts {
		totals.TotalUnits += fc.TotalEstimate
		for _, h := range fc.Horizon {
			totals.LowerUnits += h.Lower
			totals.UpperUnits += h.Upper
		}
		categories[fc.CategoryID] = true
		confidenceSum += fc.ModelConfidence
	}
	totals.CategoryCount = len(categories)
	if totals.ProductCount > 0 {
		totals.AvgConfidence = confidenceSum / float64(totals.ProductCount)
	}

	state.Totals = totals
}

// runOutputBuilding executes OUTPUT_BUILDING: capacity analysis, suggestion
// and alert generation, then notification assembly and delivery. Notification
// delivery failure is logged, not fatal.
func (o *Orchestrator) runOutputBuilding(ctx context.Context, state *contracts.RunState) {
	o.logger.Info("Running OUTPUT_BUILDING")

	state.Capacity = o.capacity.Analyze(state.Forecasts, state.Internal, o.cfg.HorizonPeriods)
	state.Suggestions = alerting.GenerateSuggestions(state.Capacity, state.Forecasts)
	state.Alerts = o.alerts.Generate(state.Capacity, state.SupplyChain, state.Forecasts, state.Internal)

	notification := alerting.BuildNotification(state.Totals, state.Suggestions, state.Alerts, o.cfg.NotifyRecipients)
	state.Notification = &notification

	if o.notifier != nil {
		if err := o.notifier.Send(ctx, notification); err != nil {
			o.logger.WithError(err).Warn("Notification delivery failed")
		}
	}
}

// SortedForecasts returns the run's forecasts ordered by product code, for
// stable presentation in API responses and reports.
func SortedForecasts(state *contracts.RunState) []contracts.ProductForecast {
	codes := make([]string, 0, len(state.Forecasts))
	for code := range state.Forecasts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	forecasts := make([]contracts.ProductForecast, 0, len(codes))
	for _, code := range codes {
		forecasts = append(forecasts, state.Forecasts[code])
	}
	return forecasts
}
