package contracts

import "time"

// CategoryBatch groups the SKUs that share one market context and one
// insight computation for a run. Members are disjoint across batches.
type CategoryBatch struct {
	CategoryID  string   `json:"category_id"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
}

// ContextSnippet is one ranked piece of market knowledge returned by the
// context store.
type ContextSnippet struct {
	Text           string    `json:"text"`
	Source         string    `json:"source"`
	RelevanceScore float64   `json:"relevance_score"`
	PublishedAt    time.Time `json:"published_at,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
}

// CategoryContext is the retrieval result for one category, ordered by
// descending relevance. Zero snippets means "insufficient evidence", not an
// error.
type CategoryContext struct {
	CategoryID string           `json:"category_id"`
	Snippets   []ContextSnippet `json:"snippets"`
}

// Empty reports whether the retrieval produced no usable evidence.
func (c CategoryContext) Empty() bool {
	return len(c.Snippets) == 0
}

// CategoryInsight is the single structured market-analysis result shared by
// every SKU in a category for one run. Immutable after creation.
type CategoryInsight struct {
	CategoryID       string    `json:"category_id"`
	Summary          string    `json:"summary"`
	KeyFindings      []string  `json:"key_findings"`
	Confidence       float64   `json:"confidence"`
	AdjustmentFactor float64   `json:"adjustment_factor"`
	Model            string    `json:"model,omitempty"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// NeutralInsightSummary is the summary used when no evidence is available.
const NeutralInsightSummary = "insufficient evidence"

// NeutralInsight returns the no-adjustment fallback insight for a category.
// Used for empty context and for analysis exhaustion: no SKU is ever blocked
// from forecasting because of an external analysis outage.
func NeutralInsight(categoryID string) CategoryInsight {
	return CategoryInsight{
		CategoryID:       categoryID,
		Summary:          NeutralInsightSummary,
		KeyFindings:      []string{},
		Confidence:       0.0,
		AdjustmentFactor: 1.0,
		AnalyzedAt:       time.Now(),
	}
}

// Neutral reports whether the insight carries no market adjustment.
func (i CategoryInsight) Neutral() bool {
	return i.AdjustmentFactor == 1.0 && i.Confidence == 0.0
}

// CategoryInfo identifies the category a resolver placed a SKU into.
type CategoryInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}
