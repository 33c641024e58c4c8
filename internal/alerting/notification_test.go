package alerting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
)

func TestGenerateSuggestionsCapacityTiers(t *testing.T) {
	high := GenerateSuggestions(&contracts.CapacityAnalysis{UtilizationRate: 0.95}, nil)
	require.NotEmpty(t, high)
	assert.Equal(t, "high", high[0].Priority)
	assert.Equal(t, "capacity", high[0].Category)

	medium := GenerateSuggestions(&contracts.CapacityAnalysis{UtilizationRate: 0.87}, nil)
	assert.Equal(t, "medium", medium[0].Priority)

	low := GenerateSuggestions(&contracts.CapacityAnalysis{UtilizationRate: 0.60}, nil)
	assert.Equal(t, "low", low[0].Priority)

	nilCapacity := GenerateSuggestions(nil, nil)
	assert.Equal(t, "low", nilCapacity[0].Priority)
}

func TestGenerateSuggestionsTopProducts(t *testing.T) {
	forecasts := map[string]contracts.ProductForecast{
		"SKU-A": {ProductCode: "SKU-A", TotalEstimate: 100},
		"SKU-B": {ProductCode: "SKU-B", TotalEstimate: 900},
		"SKU-C": {ProductCode: "SKU-C", TotalEstimate: 500},
		"SKU-D": {ProductCode: "SKU-D", TotalEstimate: 300},
	}

	suggestions := GenerateSuggestions(&contracts.CapacityAnalysis{UtilizationRate: 0.5}, forecasts)

	// One capacity suggestion plus the top three products by forecast.
	require.Len(t, suggestions, 4)
	assert.Contains(t, suggestions[1].Suggestion, "SKU-B")
	assert.Contains(t, suggestions[2].Suggestion, "SKU-C")
	assert.Contains(t, suggestions[3].Suggestion, "SKU-D")
}

func TestBuildNotificationHighPriorityOnHighAlert(t *testing.T) {
	totals := &contracts.ForecastTotals{TotalUnits: 12500, ProductCount: 4, HorizonPeriods: 3}
	alerts := []contracts.Alert{
		{Severity: contracts.SeverityHigh, Message: "capacity shortfall"},
		{Severity: contracts.SeverityLow, Message: "minor"},
	}
	suggestions := []contracts.Suggestion{
		{Suggestion: "add overtime shifts"},
	}

	n := BuildNotification(totals, suggestions, alerts, []string{"planning@partsflow.example"})

	assert.Equal(t, "high", n.Priority)
	assert.Contains(t, n.Summary, "4 products")
	require.Len(t, n.Sections, 3)
	assert.Equal(t, []string{"capacity shortfall"}, n.Sections[2].Content)
	assert.Equal(t, []string{"planning@partsflow.example"}, n.Recipients)
}

func TestBuildNotificationNormalPriorityWithoutHighAlerts(t *testing.T) {
	n := BuildNotification(&contracts.ForecastTotals{}, nil, []contracts.Alert{
		{Severity: contracts.SeverityMedium, Message: "watch this"},
	}, nil)

	assert.Equal(t, "normal", n.Priority)
	// No recommendations and no high alerts: only the forecast summary.
	require.Len(t, n.Sections, 1)
}

func TestLogNotifierSend(t *testing.T) {
	notifier := NewLogNotifier(testLogger(t))
	err := notifier.Send(context.Background(), contracts.Notification{Subject: "test"})
	assert.NoError(t, err)
}
