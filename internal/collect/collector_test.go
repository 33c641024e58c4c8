package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

type stubInternal struct {
	data *contracts.InternalData
	err  error
}

func (s *stubInternal) FetchInternal(ctx context.Context, codes []string) (*contracts.InternalData, error) {
	return s.data, s.err
}

type stubRisk struct {
	risk *contracts.SupplyChainRisk
	err  error
}

func (s *stubRisk) FetchSupplyChainRisk(ctx context.Context, codes []string) (*contracts.SupplyChainRisk, error) {
	return s.risk, s.err
}

type stubStore struct {
	pingErr error
}

func (s *stubStore) SearchMarketContext(ctx context.Context, query string, topK int) ([]contracts.ContextSnippet, error) {
	return nil, nil
}

func (s *stubStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestCollectAllSourcesHealthy(t *testing.T) {
	internal := &stubInternal{data: &contracts.InternalData{
		Products:  map[string]contracts.ProductRecord{"SKU-1": {ProductCode: "SKU-1"}},
		FetchedAt: time.Now(),
	}}
	risk := &stubRisk{risk: &contracts.SupplyChainRisk{OverallRiskScore: 0.2}}
	store := &stubStore{}

	c := NewCollector(internal, risk, store, time.Second, testLogger(t))
	result := c.Collect(context.Background(), []string{"SKU-1"})

	require.NotNil(t, result.Internal)
	require.NotNil(t, result.SupplyChain)
	assert.True(t, result.ContextReady)
	assert.Empty(t, result.Unavailable)
	assert.False(t, result.Exhausted())
}

func TestCollectDemotesFailedSources(t *testing.T) {
	internal := &stubInternal{data: &contracts.InternalData{
		Products: map[string]contracts.ProductRecord{"SKU-1": {ProductCode: "SKU-1"}},
	}}
	risk := &stubRisk{err: errors.New("feed down")}
	store := &stubStore{pingErr: errors.New("unreachable")}

	c := NewCollector(internal, risk, store, time.Second, testLogger(t))
	result := c.Collect(context.Background(), []string{"SKU-1"})

	require.NotNil(t, result.Internal)
	assert.Nil(t, result.SupplyChain)
	assert.False(t, result.ContextReady)
	assert.ElementsMatch(t, []string{SourceSupplyChain, SourceContext}, result.Unavailable)
	assert.False(t, result.Exhausted())
}

func TestCollectExhaustedWhenEverythingFails(t *testing.T) {
	internal := &stubInternal{err: errors.New("erp down")}
	risk := &stubRisk{err: errors.New("feed down")}
	store := &stubStore{pingErr: errors.New("unreachable")}

	c := NewCollector(internal, risk, store, time.Second, testLogger(t))
	result := c.Collect(context.Background(), []string{"SKU-1"})

	assert.True(t, result.Exhausted())
	assert.Len(t, result.Unavailable, 3)
}

type slowInternal struct{}

func (slowInternal) FetchInternal(ctx context.Context, codes []string) (*contracts.InternalData, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return &contracts.InternalData{}, nil
	}
}

func TestCollectTimesOutSlowSource(t *testing.T) {
	risk := &stubRisk{risk: &contracts.SupplyChainRisk{}}
	store := &stubStore{}

	c := NewCollector(slowInternal{}, risk, store, 50*time.Millisecond, testLogger(t))
	result := c.Collect(context.Background(), []string{"SKU-1"})

	assert.Nil(t, result.Internal)
	assert.Contains(t, result.Unavailable, SourceInternal)
	require.NotNil(t, result.SupplyChain)
	assert.True(t, result.ContextReady)
}
