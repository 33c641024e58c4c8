package market

import (
	"context"
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

func TestAdjustmentFactor(t *testing.T) {
	tests := []struct {
		name       string
		trend      string
		confidence float64
		want       float64
	}{
		{"growth full confidence", TrendGrowth, 1.0, 1.15},
		{"growth half confidence", TrendGrowth, 0.5, 1.075},
		{"decline full confidence", TrendDecline, 1.0, 0.90},
		{"decline low confidence", TrendDecline, 0.2, 0.98},
		{"stable", TrendStable, 0.9, 1.0},
		{"unknown trend", "sideways", 0.9, 1.0},
		{"zero confidence growth", TrendGrowth, 0.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AdjustmentFactor(tt.trend, tt.confidence), 1e-9)
		})
	}
}

func TestParseAnalysisPlainJSON(t *testing.T) {
	payload, err := parseAnalysis(`{"summary":"demand up","key_findings":["ev adoption"],"confidence":0.8,"demand_trend":"growth"}`)
	require.NoError(t, err)
	assert.Equal(t, "demand up", payload.Summary)
	assert.Equal(t, TrendGrowth, payload.DemandTrend)
	assert.InDelta(t, 0.8, payload.Confidence, 1e-9)
}

func TestParseAnalysisFencedJSON(t *testing.T) {
	content := "```json\n{\"summary\":\"flat\",\"key_findings\":[],\"confidence\":0.3,\"demand_trend\":\"stable\"}\n```"
	payload, err := parseAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, "flat", payload.Summary)
	assert.Equal(t, TrendStable, payload.DemandTrend)
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	_, err := parseAnalysis("the market looks fine to me")
	assert.Error(t, err)

	_, err = parseAnalysis(`{"key_findings":[],"confidence":0.3}`)
	assert.Error(t, err, "missing summary should be rejected")
}

func TestRuleAnalyzerGrowthSignal(t *testing.T) {
	analyzer := NewRuleAnalyzer(testLogger(t))

	batch := contracts.CategoryBatch{CategoryID: "ignition", DisplayName: "Ignition Parts", Members: []string{"SKU-1"}}
	cc := contracts.CategoryContext{
		CategoryID: "ignition",
		Snippets: []contracts.ContextSnippet{
			{Text: "Spark plug demand shows strong growth this quarter", RelevanceScore: 0.9},
			{Text: "Aftermarket expansion continues", RelevanceScore: 0.7},
		},
	}

	insight, err := analyzer.AnalyzeMarket(context.Background(), batch, cc)
	require.NoError(t, err)

	assert.Equal(t, "ignition", insight.CategoryID)
	assert.Greater(t, insight.AdjustmentFactor, 1.0)
	assert.Greater(t, insight.Confidence, 0.0)
	assert.NotEmpty(t, insight.KeyFindings)
}

func TestRuleAnalyzerEmptyContextIsNeutral(t *testing.T) {
	analyzer := NewRuleAnalyzer(testLogger(t))

	batch := contracts.CategoryBatch{CategoryID: "braking", DisplayName: "Braking"}
	insight, err := analyzer.AnalyzeMarket(context.Background(), batch, contracts.CategoryContext{CategoryID: "braking"})
	require.NoError(t, err)

	assert.True(t, insight.Neutral())
	assert.Equal(t, contracts.NeutralInsightSummary, insight.Summary)
	assert.Equal(t, 1.0, insight.AdjustmentFactor)
}

func TestRuleAnalyzerDeclineSignal(t *testing.T) {
	analyzer := NewRuleAnalyzer(testLogger(t))

	batch := contracts.CategoryBatch{CategoryID: "braking", DisplayName: "Braking"}
	cc := contracts.CategoryContext{
		CategoryID: "braking",
		Snippets: []contracts.ContextSnippet{
			{Text: "Brake pad recall triggers sales slowdown", RelevanceScore: 1.0},
		},
	}

	insight, err := analyzer.AnalyzeMarket(context.Background(), batch, cc)
	require.NoError(t, err)
	assert.Less(t, insight.AdjustmentFactor, 1.0)
}
