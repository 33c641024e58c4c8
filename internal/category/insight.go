package category

import (
	"context"
	"sync"
	"time"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// InsightResult pairs a category insight with its degradation record, if the
// insight fell back to neutral for an abnormal reason.
type InsightResult struct {
	Insight  contracts.CategoryInsight
	Degraded *contracts.DegradedCategory
}

// InsightMemo computes at most one insight per category per run. Concurrent
// callers for the same category share a single in-flight computation and all
// receive the identical result. Create one memo per pipeline run.
type InsightMemo struct {
	retriever  *Retriever
	analyzer   contracts.MarketAnalyzer
	maxRetries int
	backoff    time.Duration
	logger     *logger.Logger

	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done   chan struct{}
	result InsightResult
}

// NewInsightMemo creates a per-run memo. maxRetries counts analysis attempts
// after the first.
func NewInsightMemo(retriever *Retriever, analyzer contracts.MarketAnalyzer, maxRetries int, backoff time.Duration, log *logger.Logger) *InsightMemo {
	return &InsightMemo{
		retriever:  retriever,
		analyzer:   analyzer,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     log.WithField("component", "insight_memo"),
		flights:    make(map[string]*flight),
	}
}

// Insight returns the category's insight, computing it on first call and
// replaying the memoized result afterwards. It never returns an error: any
// failure degrades to the neutral insight.
func (m *InsightMemo) Insight(ctx context.Context, batch contracts.CategoryBatch) InsightResult {
	m.mu.Lock()
	if f, ok := m.flights[batch.CategoryID]; ok {
		m.mu.Unlock()
		select {
		case <-f.done:
			return f.result
		case <-ctx.Done():
			return InsightResult{
				Insight: contracts.NeutralInsight(batch.CategoryID),
				Degraded: &contracts.DegradedCategory{
					CategoryID: batch.CategoryID,
					Reason:     contracts.ReasonAnalysisExhausted,
					Detail:     ctx.Err().Error(),
				},
			}
		}
	}

	f := &flight{done: make(chan struct{})}
	m.flights[batch.CategoryID] = f
	m.mu.Unlock()

	f.result = m.compute(ctx, batch)
	close(f.done)
	return f.result
}

// compute runs retrieval then analysis, degrading to neutral on failure.
func (m *InsightMemo) compute(ctx context.Context, batch contracts.CategoryBatch) InsightResult {
	cc, err := m.retriever.RetrieveContext(ctx, batch)
	if err != nil {
		m.logger.WithError(err).WithField("category", batch.CategoryID).Warn("Context retrieval exhausted, using neutral insight")
		return InsightResult{
			Insight: contracts.NeutralInsight(batch.CategoryID),
			Degraded: &contracts.DegradedCategory{
				CategoryID: batch.CategoryID,
				Reason:     contracts.ReasonContextExhausted,
				Detail:     err.Error(),
			},
		}
	}

	// No evidence is a legitimate outcome, not a degradation.
	if cc.Empty() {
		m.logger.WithField("category", batch.CategoryID).Debug("No market context, using neutral insight")
		return InsightResult{Insight: contracts.NeutralInsight(batch.CategoryID)}
	}

	var lastErr error
	delay := m.backoff
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				break
			}
		}

		insight, err := m.analyzer.AnalyzeMarket(ctx, batch, cc)
		if err == nil {
			return InsightResult{Insight: *insight}
		}
		lastErr = err

		m.logger.WithError(err).WithFields(map[string]interface{}{
			"category": batch.CategoryID,
			"attempt":  attempt + 1,
		}).Warn("Market analysis attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	m.logger.WithError(lastErr).WithField("category", batch.CategoryID).Warn("Market analysis exhausted, using neutral insight")
	return InsightResult{
		Insight: contracts.NeutralInsight(batch.CategoryID),
		Degraded: &contracts.DegradedCategory{
			CategoryID: batch.CategoryID,
			Reason:     contracts.ReasonAnalysisExhausted,
			Detail:     lastErr.Error(),
		},
	}
}
