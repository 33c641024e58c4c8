package capacity

import (
	"math"
	"sort"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// constrainedThreshold is the run-level utilization above which the capacity
// status flips to constrained.
const constrainedThreshold = 0.85

// Analyzer compares aggregated forecast demand against production capacity.
// Pure computation; runs once per run during OUTPUT_BUILDING.
type Analyzer struct {
	overMargin  float64
	underMargin float64
	logger      *logger.Logger
}

// NewAnalyzer creates an analyzer with the configured margins. overMargin is
// the tolerated overshoot before a SKU counts as over capacity; underMargin
// is the idle fraction below which a SKU counts as under-utilized.
func NewAnalyzer(overMargin, underMargin float64, log *logger.Logger) *Analyzer {
	return &Analyzer{
		overMargin:  overMargin,
		underMargin: underMargin,
		logger:      log.WithField("component", "capacity_analyzer"),
	}
}

// Analyze compares each SKU's horizon demand with its capacity over the same
// horizon. SKUs without known capacity are excluded from utilization and
// listed in MissingCapacity, never assumed to fit.
func (a *Analyzer) Analyze(forecasts map[string]contracts.ProductForecast, internal *contracts.InternalData, horizonPeriods int) *contracts.CapacityAnalysis {
	analysis := &contracts.CapacityAnalysis{}

	codes := make([]string, 0, len(forecasts))
	for code := range forecasts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		fc := forecasts[code]

		var monthlyCapacity float64
		if internal != nil {
			if record, ok := internal.Product(code); ok {
				monthlyCapacity = record.MonthlyCapacity
			}
		}
		if monthlyCapacity <= 0 {
			analysis.MissingCapacity = append(analysis.MissingCapacity, code)
			continue
		}

		horizonCapacity := monthlyCapacity * float64(horizonPeriods)
		utilization := fc.TotalEstimate / horizonCapacity

		analysis.PerSKU = append(analysis.PerSKU, contracts.SkuCapacity{
			ProductCode:   code,
			Demand:        fc.TotalEstimate,
			Capacity:      horizonCapacity,
			Utilization:   round4(utilization),
			OverCapacity:  fc.TotalEstimate > horizonCapacity*(1+a.overMargin),
			UnderUtilized: utilization < 1-a.underMargin,
		})

		analysis.TotalForecast += fc.TotalEstimate
		analysis.TotalCapacity += horizonCapacity
	}

	if analysis.TotalCapacity > 0 {
		analysis.UtilizationRate = round4(analysis.TotalForecast / analysis.TotalCapacity)
	}

	if analysis.UtilizationRate >= constrainedThreshold {
		analysis.Status = contracts.CapacityConstrained
	} else {
		analysis.Status = contracts.CapacitySufficient
	}

	if diff := analysis.TotalCapacity - analysis.TotalForecast; diff >= 0 {
		analysis.SurplusCapacity = round2(diff)
	} else {
		analysis.Shortfall = round2(-diff)
	}

	a.logger.WithFields(map[string]interface{}{
		"skus":        len(analysis.PerSKU),
		"missing":     len(analysis.MissingCapacity),
		"utilization": analysis.UtilizationRate,
		"status":      analysis.Status,
	}).Info("Capacity analysis completed")

	return analysis
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
