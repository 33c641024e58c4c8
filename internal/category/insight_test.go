package category

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
)

type stubStore struct {
	snippets []contracts.ContextSnippet
	err      error
	calls    atomic.Int32
}

func (s *stubStore) SearchMarketContext(ctx context.Context, query string, topK int) ([]contracts.ContextSnippet, error) {
	s.calls.Add(1)
	return s.snippets, s.err
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }

type stubAnalyzer struct {
	insight *contracts.CategoryInsight
	errs    []error // consumed per call, then insight is returned
	calls   atomic.Int32
	perCall time.Duration
}

func (a *stubAnalyzer) AnalyzeMarket(ctx context.Context, batch contracts.CategoryBatch, cc contracts.CategoryContext) (*contracts.CategoryInsight, error) {
	n := int(a.calls.Add(1))
	if a.perCall > 0 {
		time.Sleep(a.perCall)
	}
	if n <= len(a.errs) {
		return nil, a.errs[n-1]
	}
	return a.insight, nil
}

func someSnippets() []contracts.ContextSnippet {
	return []contracts.ContextSnippet{{Text: "demand growth", Source: "news", RelevanceScore: 0.8}}
}

func testBatch() contracts.CategoryBatch {
	return contracts.CategoryBatch{CategoryID: "ignition", DisplayName: "Ignition", Members: []string{"SKU-1", "SKU-2"}}
}

func TestInsightMemoComputesOnce(t *testing.T) {
	store := &stubStore{snippets: someSnippets()}
	analyzer := &stubAnalyzer{insight: &contracts.CategoryInsight{
		CategoryID: "ignition", Summary: "up", Confidence: 0.7, AdjustmentFactor: 1.1,
	}}

	memo := NewInsightMemo(NewRetriever(store, nil, 5, testLogger(t)), analyzer, 2, time.Millisecond, testLogger(t))

	var wg sync.WaitGroup
	results := make([]InsightResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = memo.Insight(context.Background(), testBatch())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), analyzer.calls.Load(), "analysis must run exactly once per category")
	assert.Equal(t, int32(1), store.calls.Load(), "retrieval must run exactly once per category")
	for _, r := range results {
		assert.Equal(t, "up", r.Insight.Summary)
		assert.Nil(t, r.Degraded)
	}
}

func TestInsightMemoRetriesThenSucceeds(t *testing.T) {
	store := &stubStore{snippets: someSnippets()}
	analyzer := &stubAnalyzer{
		errs:    []error{errors.New("transient"), errors.New("transient")},
		insight: &contracts.CategoryInsight{CategoryID: "ignition", Summary: "recovered", AdjustmentFactor: 1.05, Confidence: 0.5},
	}

	memo := NewInsightMemo(NewRetriever(store, nil, 5, testLogger(t)), analyzer, 2, time.Millisecond, testLogger(t))
	r := memo.Insight(context.Background(), testBatch())

	require.Nil(t, r.Degraded)
	assert.Equal(t, "recovered", r.Insight.Summary)
	assert.Equal(t, int32(3), analyzer.calls.Load())
}

func TestInsightMemoExhaustionFallsBackToNeutral(t *testing.T) {
	store := &stubStore{snippets: someSnippets()}
	analyzer := &stubAnalyzer{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}

	memo := NewInsightMemo(NewRetriever(store, nil, 5, testLogger(t)), analyzer, 2, time.Millisecond, testLogger(t))
	r := memo.Insight(context.Background(), testBatch())

	require.NotNil(t, r.Degraded)
	assert.Equal(t, contracts.ReasonAnalysisExhausted, r.Degraded.Reason)
	assert.True(t, r.Insight.Neutral())
	assert.Equal(t, contracts.NeutralInsightSummary, r.Insight.Summary)
	assert.Equal(t, 1.0, r.Insight.AdjustmentFactor)
}

func TestInsightMemoRetrievalFailureIsNeutralAndDegraded(t *testing.T) {
	store := &stubStore{err: errors.New("vector store down")}
	analyzer := &stubAnalyzer{insight: &contracts.CategoryInsight{Summary: "should not be used"}}

	memo := NewInsightMemo(NewRetriever(store, nil, 5, testLogger(t)), analyzer, 2, time.Millisecond, testLogger(t))
	r := memo.Insight(context.Background(), testBatch())

	require.NotNil(t, r.Degraded)
	assert.Equal(t, contracts.ReasonContextExhausted, r.Degraded.Reason)
	assert.True(t, r.Insight.Neutral())
	assert.Equal(t, int32(0), analyzer.calls.Load(), "analysis must not run after retrieval exhaustion")
}

func TestInsightMemoEmptyContextIsNeutralNotDegraded(t *testing.T) {
	store := &stubStore{snippets: nil}
	analyzer := &stubAnalyzer{insight: &contracts.CategoryInsight{Summary: "should not be used"}}

	memo := NewInsightMemo(NewRetriever(store, nil, 5, testLogger(t)), analyzer, 2, time.Millisecond, testLogger(t))
	r := memo.Insight(context.Background(), testBatch())

	assert.Nil(t, r.Degraded)
	assert.True(t, r.Insight.Neutral())
	assert.Equal(t, int32(0), analyzer.calls.Load())
}
