package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Keyword lists for the rule-based trend scan.
var (
	growthKeywords  = []string{"growth", "rising", "increase", "expansion", "surge", "demand spike", "record sales"}
	declineKeywords = []string{"decline", "falling", "decrease", "slowdown", "recall", "shortage", "disruption"}
)

// RuleAnalyzer is a deterministic fallback MarketAnalyzer used when no LLM
// endpoint is configured. It scans snippets for trend keywords and weights
// hits by snippet relevance.
type RuleAnalyzer struct {
	logger *logger.Logger
}

// NewRuleAnalyzer creates the keyword-scan analyzer.
func NewRuleAnalyzer(log *logger.Logger) *RuleAnalyzer {
	return &RuleAnalyzer{logger: log.WithField("component", "rule_analyzer")}
}

// AnalyzeMarket derives an insight from keyword hits across the snippets.
func (a *RuleAnalyzer) AnalyzeMarket(_ context.Context, batch contracts.CategoryBatch, cc contracts.CategoryContext) (*contracts.CategoryInsight, error) {
	if cc.Empty() {
		insight := contracts.NeutralInsight(batch.CategoryID)
		insight.Model = "rule-based"
		return &insight, nil
	}

	var growthScore, declineScore float64
	var findings []string

	for _, s := range cc.Snippets {
		text := strings.ToLower(s.Text)
		for _, kw := range growthKeywords {
			if strings.Contains(text, kw) {
				growthScore += s.RelevanceScore
				findings = append(findings, fmt.Sprintf("%q signal in: %s", kw, truncate(s.Text, 120)))
				break
			}
		}
		for _, kw := range declineKeywords {
			if strings.Contains(text, kw) {
				declineScore += s.RelevanceScore
				findings = append(findings, fmt.Sprintf("%q signal in: %s", kw, truncate(s.Text, 120)))
				break
			}
		}
	}

	trend := TrendStable
	confidence := 0.0
	total := growthScore + declineScore
	if total > 0 {
		if growthScore > declineScore {
			trend = TrendGrowth
			confidence = growthScore / float64(len(cc.Snippets))
		} else if declineScore > growthScore {
			trend = TrendDecline
			confidence = declineScore / float64(len(cc.Snippets))
		}
	}
	confidence = clampConfidence(confidence)

	summary := fmt.Sprintf("Keyword scan over %d snippets indicates %s demand for %s",
		len(cc.Snippets), trend, batch.DisplayName)

	return &contracts.CategoryInsight{
		CategoryID:       batch.CategoryID,
		Summary:          summary,
		KeyFindings:      findings,
		Confidence:       confidence,
		AdjustmentFactor: AdjustmentFactor(trend, confidence),
		Model:            "rule-based",
		AnalyzedAt:       time.Now(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
