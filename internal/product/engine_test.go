package product

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// syntheticSeries builds months of demand with trend and yearly seasonality,
// starting at 2023-01.
func syntheticSeries(months int) []contracts.SeriesPoint {
	seasonal := []float64{-20, -15, -5, 0, 10, 20, 25, 20, 10, 0, -10, -18}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	series := make([]contracts.SeriesPoint, 0, months)
	for t := 0; t < months; t++ {
		series = append(series, contracts.SeriesPoint{
			Period:   start.AddDate(0, t, 0).Format("2006-01"),
			Quantity: 200 + 2*float64(t) + seasonal[t%12],
		})
	}
	return series
}

func skuWithInsight(insight contracts.CategoryInsight) contracts.SkuContext {
	return contracts.SkuContext{
		ProductCode:      "VCH-20",
		ProductName:      "Iridium Spark Plug",
		CategoryID:       "ignition",
		HistoricalSeries: syntheticSeries(36),
		Insight:          insight,
	}
}

func TestForecastProducesOrderedBounds(t *testing.T) {
	engine := NewEngine(testLogger(t))
	sc := skuWithInsight(contracts.NeutralInsight("ignition"))

	fc, err := engine.Forecast(sc, 3)
	require.NoError(t, err)

	require.Len(t, fc.Horizon, 3)
	for _, h := range fc.Horizon {
		assert.GreaterOrEqual(t, h.Lower, 0.0)
		assert.LessOrEqual(t, h.Lower, h.Point)
		assert.LessOrEqual(t, h.Point, h.Upper)
	}
	assert.Equal(t, MethodHoltWinters, fc.Method)
	assert.Equal(t, 1.0, fc.AdjustmentApplied)
}

func TestForecastContinuesPeriodSequence(t *testing.T) {
	engine := NewEngine(testLogger(t))
	sc := skuWithInsight(contracts.NeutralInsight("ignition"))

	fc, err := engine.Forecast(sc, 3)
	require.NoError(t, err)

	// History ends at 2025-12 (36 months from 2023-01).
	assert.Equal(t, "2026-01", fc.Horizon[0].Period)
	assert.Equal(t, "2026-02", fc.Horizon[1].Period)
	assert.Equal(t, "2026-03", fc.Horizon[2].Period)
}

func TestForecastTracksTrendAndSeason(t *testing.T) {
	engine := NewEngine(testLogger(t))
	sc := skuWithInsight(contracts.NeutralInsight("ignition"))

	fc, err := engine.Forecast(sc, 12)
	require.NoError(t, err)

	// Series trends at +2/month around 270 by the end; projections should
	// stay in a plausible band rather than collapse or explode.
	for _, h := range fc.Horizon {
		assert.Greater(t, h.Point, 180.0)
		assert.Less(t, h.Point, 400.0)
	}

	// January is a seasonal trough, July a peak.
	assert.Greater(t, fc.Horizon[6].Point, fc.Horizon[0].Point)
}

func TestForecastAppliesAdjustmentFactor(t *testing.T) {
	engine := NewEngine(testLogger(t))

	neutral, err := engine.Forecast(skuWithInsight(contracts.NeutralInsight("ignition")), 3)
	require.NoError(t, err)

	boosted, err := engine.Forecast(skuWithInsight(contracts.CategoryInsight{
		CategoryID:       "ignition",
		Confidence:       1.0,
		AdjustmentFactor: 1.15,
	}), 3)
	require.NoError(t, err)

	assert.Equal(t, 1.15, boosted.AdjustmentApplied)
	for i := range neutral.Horizon {
		assert.InDelta(t, neutral.Horizon[i].Point*1.15, boosted.Horizon[i].Point, 0.02)
	}
	assert.InDelta(t, neutral.TotalEstimate*1.15, boosted.TotalEstimate, 0.1)
}

func TestForecastConfidenceScalesWithInsight(t *testing.T) {
	engine := NewEngine(testLogger(t))

	low, err := engine.Forecast(skuWithInsight(contracts.CategoryInsight{
		CategoryID: "ignition", Confidence: 0.0, AdjustmentFactor: 1.0,
	}), 3)
	require.NoError(t, err)

	high, err := engine.Forecast(skuWithInsight(contracts.CategoryInsight{
		CategoryID: "ignition", Confidence: 1.0, AdjustmentFactor: 1.0,
	}), 3)
	require.NoError(t, err)

	// Zero category confidence halves the model confidence; full category
	// confidence leaves the fit quality intact.
	assert.InDelta(t, low.ModelConfidence*2, high.ModelConfidence, 1e-3)
	assert.Greater(t, high.ModelConfidence, 0.5, "clean synthetic series should fit well")
}

func TestForecastRejectsShortSeries(t *testing.T) {
	engine := NewEngine(testLogger(t))
	sc := skuWithInsight(contracts.NeutralInsight("ignition"))
	sc.HistoricalSeries = syntheticSeries(18)

	_, err := engine.Forecast(sc, 3)
	assert.Error(t, err)
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	engine := NewEngine(testLogger(t))
	_, err := engine.Forecast(skuWithInsight(contracts.NeutralInsight("ignition")), 0)
	assert.Error(t, err)
}

func TestForecastClampsNegativeDemand(t *testing.T) {
	engine := NewEngine(testLogger(t))

	// Steeply declining series pushes projections toward zero.
	series := make([]contracts.SeriesPoint, 30)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for t := 0; t < 30; t++ {
		q := 300 - 11*float64(t)
		if q < 0 {
			q = 0
		}
		series[t] = contracts.SeriesPoint{
			Period:   start.AddDate(0, t, 0).Format("2006-01"),
			Quantity: q,
		}
	}

	sc := contracts.SkuContext{
		ProductCode:      "FADING-SKU",
		CategoryID:       "legacy",
		HistoricalSeries: series,
		Insight:          contracts.NeutralInsight("legacy"),
	}

	fc, err := engine.Forecast(sc, 6)
	require.NoError(t, err)
	for i, h := range fc.Horizon {
		assert.GreaterOrEqual(t, h.Point, 0.0, fmt.Sprintf("period %d", i))
		assert.GreaterOrEqual(t, h.Lower, 0.0, fmt.Sprintf("period %d", i))
		assert.LessOrEqual(t, h.Lower, h.Point)
		assert.LessOrEqual(t, h.Point, h.Upper)
	}
}
