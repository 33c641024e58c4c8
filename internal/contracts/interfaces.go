package contracts

import "context"

// Collaborator interfaces consumed by the pipeline core. Implementations
// live at the edges (internal/collect, internal/vectorstore, internal/market)
// and are injected at orchestrator construction; core logic never branches
// on which implementation it holds.

// InternalFetcher pulls orders, inventory, series, and capacity from the
// internal systems (ERP/WMS/MES).
type InternalFetcher interface {
	FetchInternal(ctx context.Context, productCodes []string) (*InternalData, error)
}

// RiskFetcher pulls supplier status and logistics delays from the
// supply-chain monitoring feed.
type RiskFetcher interface {
	FetchSupplyChainRisk(ctx context.Context, productCodes []string) (*SupplyChainRisk, error)
}

// ContextStore is a similarity-searchable store of market-knowledge
// snippets. Results are ordered by descending relevance.
type ContextStore interface {
	SearchMarketContext(ctx context.Context, query string, topK int) ([]ContextSnippet, error)
	// Ping probes availability during the collection phase.
	Ping(ctx context.Context) error
}

// MarketAnalyzer turns retrieved snippets into one structured market insight
// per category. May be an LLM-backed or rule-based service.
type MarketAnalyzer interface {
	AnalyzeMarket(ctx context.Context, batch CategoryBatch, cc CategoryContext) (*CategoryInsight, error)
}

// CategoryResolver maps a SKU to its category. A SKU the resolver cannot
// place is degraded with reason unresolved_category, never guessed into a
// default category.
type CategoryResolver interface {
	Resolve(productCode string, internal *InternalData) (CategoryInfo, error)
}

// Notifier delivers the assembled notification to stakeholders.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
