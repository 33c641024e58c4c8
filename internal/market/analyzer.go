package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/httputil"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Demand trend signals reported by the analysis model.
const (
	TrendGrowth  = "growth"
	TrendDecline = "decline"
	TrendStable  = "stable"
)

// Adjustment factor weights: growth scales demand up by at most 15%, decline
// scales down by at most 10%, both proportional to confidence.
const (
	growthWeight  = 0.15
	declineWeight = 0.10
)

// AdjustmentFactor derives the demand multiplier from a trend signal and the
// model's confidence. Unknown trends are treated as stable.
func AdjustmentFactor(trend string, confidence float64) float64 {
	switch trend {
	case TrendGrowth:
		return 1 + growthWeight*confidence
	case TrendDecline:
		return 1 - declineWeight*confidence
	default:
		return 1.0
	}
}

// LLMAnalyzer produces category insights through an OpenAI-compatible chat
// endpoint. Requests are rate limited; malformed model output is an error the
// caller degrades on.
type LLMAnalyzer struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
}

// NewLLMAnalyzer creates an analyzer from config.
func NewLLMAnalyzer(cfg *config.Config, log *logger.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		httpClient: httputil.NewWithTimeout(cfg, log, cfg.Market.Timeout).
			WithRetry(cfg.Market.MaxRetries, time.Second),
		logger:  log.WithField("component", "market_analyzer"),
		limiter: rate.NewLimiter(rate.Limit(cfg.Market.RatePerSec), 1),
		baseURL: strings.TrimRight(cfg.Market.BaseURL, "/"),
		apiKey:  cfg.Market.APIKey,
		model:   cfg.Market.Model,
	}
}

const analysisSystemPrompt = `You are a demand analyst for an auto-parts manufacturer.
Given a product category and market context snippets, return ONLY a JSON object:
{"summary": "...", "key_findings": ["..."], "confidence": 0.0, "demand_trend": "growth|decline|stable"}
confidence is your certainty in the findings, between 0 and 1.
Base findings strictly on the provided context; with little context, lower the confidence.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type analysisPayload struct {
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"key_findings"`
	Confidence  float64  `json:"confidence"`
	DemandTrend string   `json:"demand_trend"`
}

// AnalyzeMarket asks the model for one structured insight covering the whole
// category batch.
func (a *LLMAnalyzer) AnalyzeMarket(ctx context.Context, batch contracts.CategoryBatch, cc contracts.CategoryContext) (*contracts.CategoryInsight, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	userPrompt := buildPrompt(batch, cc)

	reqURL := a.baseURL + "/chat/completions"
	headers := map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	}

	resp, err := a.httpClient.PostJSONWithHeaders(ctx, reqURL, chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	}, headers)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("analysis API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("analysis API returned no choices")
	}

	payload, err := parseAnalysis(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	insight := &contracts.CategoryInsight{
		CategoryID:       batch.CategoryID,
		Summary:          payload.Summary,
		KeyFindings:      payload.KeyFindings,
		Confidence:       clampConfidence(payload.Confidence),
		AdjustmentFactor: AdjustmentFactor(payload.DemandTrend, clampConfidence(payload.Confidence)),
		Model:            a.model,
		AnalyzedAt:       time.Now(),
	}

	a.logger.WithFields(map[string]interface{}{
		"category":   batch.CategoryID,
		"trend":      payload.DemandTrend,
		"confidence": insight.Confidence,
		"adjustment": insight.AdjustmentFactor,
	}).Debug("Market analysis completed")

	return insight, nil
}

// buildPrompt renders the batch and its context snippets into the user
// message.
func buildPrompt(batch contracts.CategoryBatch, cc contracts.CategoryContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s (%s)\n", batch.DisplayName, batch.CategoryID)
	if batch.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", batch.Description)
	}
	fmt.Fprintf(&b, "Products in category: %s\n\n", strings.Join(batch.Members, ", "))

	if cc.Empty() {
		b.WriteString("Market context: none available.\n")
		return b.String()
	}

	b.WriteString("Market context snippets:\n")
	for i, s := range cc.Snippets {
		fmt.Fprintf(&b, "%d. [%s, relevance %.2f] %s\n", i+1, s.Source, s.RelevanceScore, s.Text)
	}
	return b.String()
}

// parseAnalysis extracts the JSON object from the model output, tolerating
// fenced code blocks.
func parseAnalysis(content string) (*analysisPayload, error) {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse analysis output: %w", err)
	}
	if payload.Summary == "" {
		return nil, fmt.Errorf("analysis output missing summary")
	}
	return &payload, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
