package collect

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Source names used in unavailability markers and logs.
const (
	SourceInternal    = "internal_data"
	SourceSupplyChain = "supply_chain_risk"
	SourceContext     = "market_context"
)

// Result is the outcome of the COLLECTING stage. A nil payload means the
// source was demoted to "unavailable" rather than failing the run.
type Result struct {
	Internal     *contracts.InternalData
	SupplyChain  *contracts.SupplyChainRisk
	ContextReady bool
	Unavailable  []string
}

// Exhausted reports whether every data source failed at once. This is the
// only fatal condition in the pipeline.
func (r *Result) Exhausted() bool {
	return r.Internal == nil && r.SupplyChain == nil && !r.ContextReady
}

// Collector runs the three data-collection fetches concurrently and demotes
// individual failures instead of propagating them.
type Collector struct {
	internal contracts.InternalFetcher
	risk     contracts.RiskFetcher
	store    contracts.ContextStore
	timeout  time.Duration
	logger   *logger.Logger
}

// NewCollector creates a collector over the three collaborator interfaces.
func NewCollector(internal contracts.InternalFetcher, risk contracts.RiskFetcher, store contracts.ContextStore, timeout time.Duration, log *logger.Logger) *Collector {
	return &Collector{
		internal: internal,
		risk:     risk,
		store:    store,
		timeout:  timeout,
		logger:   log.WithField("component", "collector"),
	}
}

// Collect fetches internal data, supply-chain risk, and probes the context
// store, all in parallel. Each sub-fetch carries its own timeout; a failure
// demotes that source to unavailable.
func (c *Collector) Collect(ctx context.Context, productCodes []string) *Result {
	result := &Result{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, c.timeout)
		defer cancel()

		data, err := c.internal.FetchInternal(fetchCtx, productCodes)
		if err != nil {
			c.logger.WithError(err).WithField("source", SourceInternal).Warn("data source unavailable")
			return nil
		}
		result.Internal = data
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(gctx, c.timeout)
		defer cancel()

		risk, err := c.risk.FetchSupplyChainRisk(fetchCtx, productCodes)
		if err != nil {
			c.logger.WithError(err).WithField("source", SourceSupplyChain).Warn("data source unavailable")
			return nil
		}
		result.SupplyChain = risk
		return nil
	})

	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, c.timeout)
		defer cancel()

		if err := c.store.Ping(probeCtx); err != nil {
			c.logger.WithError(err).WithField("source", SourceContext).Warn("data source unavailable")
			return nil
		}
		result.ContextReady = true
		return nil
	})

	// Goroutines only return nil; Wait is for synchronization.
	_ = g.Wait()

	if result.Internal == nil {
		result.Unavailable = append(result.Unavailable, SourceInternal)
	}
	if result.SupplyChain == nil {
		result.Unavailable = append(result.Unavailable, SourceSupplyChain)
	}
	if !result.ContextReady {
		result.Unavailable = append(result.Unavailable, SourceContext)
	}

	c.logger.WithFields(map[string]interface{}{
		"products":    len(productCodes),
		"unavailable": result.Unavailable,
	}).Info("Data collection completed")

	return result
}
