package alerting

import (
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

func testGenerator(t *testing.T) *Generator {
	return NewGenerator(3, testLogger(t))
}

// flatSeries builds months of constant demand ending at 2025-12.
func flatSeries(months int, quantity float64) []contracts.SeriesPoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)
	series := make([]contracts.SeriesPoint, months)
	for i := 0; i < months; i++ {
		series[i] = contracts.SeriesPoint{
			Period:   start.AddDate(0, i, 0).Format("2006-01"),
			Quantity: quantity,
		}
	}
	return series
}

func TestCapacityRuleEmitsSingleHighAlert(t *testing.T) {
	capacity := &contracts.CapacityAnalysis{
		PerSKU: []contracts.SkuCapacity{
			{ProductCode: "SKU-OVER", Demand: 3300, Capacity: 3000, OverCapacity: true},
			{ProductCode: "SKU-OK", Demand: 1000, Capacity: 3000},
		},
		UtilizationRate: 0.72,
	}
	forecasts := map[string]contracts.ProductForecast{
		"SKU-OVER": {ProductCode: "SKU-OVER", CategoryID: "ignition", TotalEstimate: 3300},
		"SKU-OK":   {ProductCode: "SKU-OK", CategoryID: "braking", TotalEstimate: 1000},
	}

	alerts := testGenerator(t).Generate(capacity, nil, forecasts, &contracts.InternalData{})

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, contracts.AlertCapacityWarning, a.Type)
	assert.Equal(t, contracts.SeverityHigh, a.Severity)
	assert.Equal(t, []string{"SKU-OVER"}, a.AffectedProducts)
	assert.Equal(t, []string{"ignition"}, a.AffectedCategories)
	assert.GreaterOrEqual(t, a.PriorityScore, 50)
	assert.LessOrEqual(t, a.PriorityScore, 100)
}

func TestSpikeRule(t *testing.T) {
	internal := &contracts.InternalData{
		Products: map[string]contracts.ProductRecord{
			// Baseline 300 over 3 months; forecast 450 is a 50% spike.
			"SKU-SPIKE": {ProductCode: "SKU-SPIKE", HistoricalSales: flatSeries(24, 100)},
			// Forecast 310 is under the 30% threshold.
			"SKU-FLAT": {ProductCode: "SKU-FLAT", HistoricalSales: flatSeries(24, 100)},
		},
	}
	forecasts := map[string]contracts.ProductForecast{
		"SKU-SPIKE": {ProductCode: "SKU-SPIKE", CategoryID: "ignition", TotalEstimate: 450},
		"SKU-FLAT":  {ProductCode: "SKU-FLAT", CategoryID: "ignition", TotalEstimate: 310},
	}

	alerts := testGenerator(t).Generate(nil, nil, forecasts, internal)

	require.Len(t, alerts, 1)
	assert.Equal(t, contracts.AlertDemandSpike, alerts[0].Type)
	assert.Equal(t, contracts.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, []string{"SKU-SPIKE"}, alerts[0].AffectedProducts)
}

func TestSupplierRules(t *testing.T) {
	risk := &contracts.SupplyChainRisk{
		OverallRiskScore: 0.6,
		SupplierStatus: []contracts.SupplierStatus{
			{SupplierID: "SUP-1", Name: "Kyushu Ceramics", RiskLevel: "high", ProductCodes: []string{"SKU-A"}},
			{SupplierID: "SUP-2", Name: "Steady Steel", RiskLevel: "low"},
		},
	}
	forecasts := map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", CategoryID: "ignition", TotalEstimate: 100, AdjustmentApplied: 1.1},
	}

	alerts := testGenerator(t).Generate(nil, risk, forecasts, &contracts.InternalData{})

	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, contracts.AlertSupplierRisk, a.Type)
		assert.Equal(t, contracts.SeverityHigh, a.Severity)
	}
}

func TestSupplierRiskMediumBelowHighThreshold(t *testing.T) {
	risk := &contracts.SupplyChainRisk{OverallRiskScore: 0.4}

	alerts := testGenerator(t).Generate(nil, risk, nil, &contracts.InternalData{})

	require.Len(t, alerts, 1)
	assert.Equal(t, contracts.SeverityMedium, alerts[0].Severity)
}

func TestInventoryRuleSeverityByStockout(t *testing.T) {
	internal := &contracts.InternalData{
		Products: map[string]contracts.ProductRecord{
			"SKU-URGENT": {
				ProductCode: "SKU-URGENT",
				Inventory:   contracts.Inventory{CurrentStock: 50, SafetyStock: 200},
			},
			"SKU-SLOW": {
				ProductCode: "SKU-SLOW",
				Inventory:   contracts.Inventory{CurrentStock: 180, SafetyStock: 200},
			},
		},
	}
	forecasts := map[string]contracts.ProductForecast{
		// 300/month burns 50 units in 5 days.
		"SKU-URGENT": {ProductCode: "SKU-URGENT", CategoryID: "ignition", Horizon: []contracts.HorizonPoint{{Point: 300}}},
		// 60/month keeps 180 units for 90 days.
		"SKU-SLOW": {ProductCode: "SKU-SLOW", CategoryID: "ignition", Horizon: []contracts.HorizonPoint{{Point: 60}}},
	}

	alerts := testGenerator(t).Generate(nil, nil, forecasts, internal)

	require.Len(t, alerts, 2)
	bySKU := map[string]contracts.Alert{}
	for _, a := range alerts {
		require.Equal(t, contracts.AlertInventory, a.Type)
		bySKU[a.AffectedProducts[0]] = a
	}
	assert.Equal(t, contracts.SeverityMedium, bySKU["SKU-URGENT"].Severity)
	assert.Equal(t, contracts.SeverityLow, bySKU["SKU-SLOW"].Severity)
}

func TestGenerateOrdersByPriority(t *testing.T) {
	capacity := &contracts.CapacityAnalysis{
		PerSKU: []contracts.SkuCapacity{
			{ProductCode: "SKU-A", Demand: 3300, Capacity: 3000, OverCapacity: true},
		},
	}
	risk := &contracts.SupplyChainRisk{OverallRiskScore: 0.35}
	internal := &contracts.InternalData{
		Products: map[string]contracts.ProductRecord{
			"SKU-A": {
				ProductCode: "SKU-A",
				Inventory:   contracts.Inventory{CurrentStock: 180, SafetyStock: 200},
			},
		},
	}
	forecasts := map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", CategoryID: "ignition", TotalEstimate: 3300, Horizon: []contracts.HorizonPoint{{Point: 60}}},
	}

	alerts := testGenerator(t).Generate(capacity, risk, forecasts, internal)

	require.GreaterOrEqual(t, len(alerts), 3)
	for i := 1; i < len(alerts); i++ {
		assert.GreaterOrEqual(t, alerts[i-1].PriorityScore, alerts[i].PriorityScore, "alerts must be sorted by priority")
	}
	assert.Equal(t, contracts.AlertCapacityWarning, alerts[0].Type)
}

func TestGenerateNoInputsNoAlerts(t *testing.T) {
	alerts := testGenerator(t).Generate(nil, nil, nil, nil)
	assert.Empty(t, alerts)
}
