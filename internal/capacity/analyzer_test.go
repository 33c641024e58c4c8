package capacity

import (
	"testing"

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

func testAnalyzer(t *testing.T) *Analyzer {
	return NewAnalyzer(0.0, 0.20, testLogger(t))
}

func internalWithCapacity(caps map[string]float64) *contracts.InternalData {
	products := make(map[string]contracts.ProductRecord, len(caps))
	for code, c := range caps {
		products[code] = contracts.ProductRecord{ProductCode: code, MonthlyCapacity: c}
	}
	return &contracts.InternalData{Products: products}
}

func TestAnalyzeFlagsOverCapacity(t *testing.T) {
	forecasts := map[string]contracts.ProductForecast{
		"SKU-HOT":  {ProductCode: "SKU-HOT", TotalEstimate: 3500},
		"SKU-COLD": {ProductCode: "SKU-COLD", TotalEstimate: 900},
	}
	internal := internalWithCapacity(map[string]float64{
		"SKU-HOT":  1000, // 3000 over 3 months, demand 3500
		"SKU-COLD": 1000, // 3000 over 3 months, demand 900
	})

	analysis := testAnalyzer(t).Analyze(forecasts, internal, 3)

	require.Len(t, analysis.PerSKU, 2)

	// Sorted by product code: SKU-COLD first.
	cold, hot := analysis.PerSKU[0], analysis.PerSKU[1]
	assert.Equal(t, "SKU-COLD", cold.ProductCode)
	assert.False(t, cold.OverCapacity)
	assert.True(t, cold.UnderUtilized)

	assert.Equal(t, "SKU-HOT", hot.ProductCode)
	assert.True(t, hot.OverCapacity)
	assert.False(t, hot.UnderUtilized)
}

func TestAnalyzeRunLevelStatus(t *testing.T) {
	internal := internalWithCapacity(map[string]float64{"SKU-A": 1000})

	// 90% utilization over 3 months: constrained.
	constrained := testAnalyzer(t).Analyze(map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", TotalEstimate: 2700},
	}, internal, 3)
	assert.Equal(t, contracts.CapacityConstrained, constrained.Status)
	assert.InDelta(t, 0.9, constrained.UtilizationRate, 1e-9)
	assert.InDelta(t, 300, constrained.SurplusCapacity, 1e-9)

	// 50% utilization: sufficient.
	sufficient := testAnalyzer(t).Analyze(map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", TotalEstimate: 1500},
	}, internal, 3)
	assert.Equal(t, contracts.CapacitySufficient, sufficient.Status)
}

func TestAnalyzeShortfall(t *testing.T) {
	internal := internalWithCapacity(map[string]float64{"SKU-A": 100})

	analysis := testAnalyzer(t).Analyze(map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", TotalEstimate: 450},
	}, internal, 3)

	assert.InDelta(t, 150, analysis.Shortfall, 1e-9)
	assert.Zero(t, analysis.SurplusCapacity)
	assert.Equal(t, contracts.CapacityConstrained, analysis.Status)
}

func TestAnalyzeExcludesMissingCapacity(t *testing.T) {
	internal := internalWithCapacity(map[string]float64{"SKU-A": 1000})

	analysis := testAnalyzer(t).Analyze(map[string]contracts.ProductForecast{
		"SKU-A":       {ProductCode: "SKU-A", TotalEstimate: 1000},
		"SKU-NOCAP":   {ProductCode: "SKU-NOCAP", TotalEstimate: 5000},
		"SKU-UNKNOWN": {ProductCode: "SKU-UNKNOWN", TotalEstimate: 5000},
	}, internal, 3)

	require.Len(t, analysis.PerSKU, 1)
	assert.Equal(t, []string{"SKU-NOCAP", "SKU-UNKNOWN"}, analysis.MissingCapacity)

	// Excluded SKUs contribute to neither side of the utilization ratio.
	assert.InDelta(t, 1000, analysis.TotalForecast, 1e-9)
	assert.InDelta(t, 3000, analysis.TotalCapacity, 1e-9)
}

func TestAnalyzeEmptyForecasts(t *testing.T) {
	analysis := testAnalyzer(t).Analyze(nil, nil, 3)

	assert.Empty(t, analysis.PerSKU)
	assert.Zero(t, analysis.UtilizationRate)
	assert.Equal(t, contracts.CapacitySufficient, analysis.Status)
}
