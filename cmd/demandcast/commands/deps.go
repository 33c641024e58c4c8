package commands

import (
	"fmt"

	"github.com/partsflow/demandcast/internal/alerting"
	"github.com/partsflow/demandcast/internal/capacity"
	"github.com/partsflow/demandcast/internal/category"
	"github.com/partsflow/demandcast/internal/collect"
	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/internal/ingest"
	"github.com/partsflow/demandcast/internal/market"
	"github.com/partsflow/demandcast/internal/pipeline"
	"github.com/partsflow/demandcast/internal/product"
	"github.com/partsflow/demandcast/internal/store"
	"github.com/partsflow/demandcast/internal/vectorstore"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/database"
	"github.com/partsflow/demandcast/pkg/httputil"
	"github.com/partsflow/demandcast/pkg/logger"
	"github.com/partsflow/demandcast/pkg/redis"
)

// app bundles the wired collaborators shared by the CLI commands.
// SSOT: dependency wiring happens only in buildApp.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	cache *redis.Cache

	qdrant       *vectorstore.QdrantStore
	orchestrator *pipeline.Orchestrator
	ingestor     *ingest.Ingestor

	runs      *store.RunRepository
	forecasts *store.ForecastRepository
	alerts    *store.AlertRepository
}

// buildApp loads config and wires the full pipeline. When requireDB is false
// and the database is unreachable, persistence is disabled instead of failing.
func buildApp(requireDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// Database (optional unless required)
	db, err := database.New(cfg)
	if err != nil {
		if requireDB {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.WithError(err).Warn("Database unavailable, persistence disabled")
	} else {
		a.db = db
		a.runs = store.NewRunRepository(db.Pool)
		a.forecasts = store.NewForecastRepository(db.Pool)
		a.alerts = store.NewAlertRepository(db.Pool)
	}

	// Redis cache (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
	} else if redisClient.Enabled() {
		a.redis = redisClient
		a.cache = redis.NewCache(redisClient, "demandcast")
	}

	httpClient := httputil.New(cfg, log)

	// Context store over qdrant; an unreachable qdrant degrades to an
	// in-memory store so the pipeline can still run (context retrieval then
	// yields neutral insights).
	var ctxStore vectorstore.Store
	embedder := vectorstore.NewOpenAIEmbedder(cfg, log)
	qdrantStore, err := vectorstore.NewQdrantStore(cfg, embedder, log)
	if err != nil {
		log.WithError(err).Warn("Vector store unavailable, using in-memory context store")
		ctxStore = vectorstore.NewMemoryStore()
	} else {
		a.qdrant = qdrantStore
		ctxStore = qdrantStore
	}

	// Data collection
	erpClient := collect.NewERPClient(cfg, log)
	riskClient := collect.NewRiskClient(cfg, log)
	collector := collect.NewCollector(erpClient, riskClient, ctxStore, cfg.Pipeline.CollectTimeout, log)

	// Category processing
	splitter := category.NewSplitter(category.NewCatalogResolver(), log)
	retriever := category.NewRetriever(ctxStore, a.cache, cfg.Pipeline.ContextTopK, log)

	var analyzer contracts.MarketAnalyzer
	if cfg.Market.APIKey != "" {
		analyzer = market.NewLLMAnalyzer(cfg, log)
	} else {
		log.Warn("No market API key configured, using rule-based analyzer")
		analyzer = market.NewRuleAnalyzer(log)
	}

	// Forecasting and output
	fuser := product.NewFuser(cfg.Pipeline.MinHistoryPeriods, log)
	engine := product.NewEngine(log)
	capacityAnalyzer := capacity.NewAnalyzer(cfg.Pipeline.OverCapacityMargin, cfg.Pipeline.UnderUtilizedMargin, log)
	alertGenerator := alerting.NewGenerator(cfg.Pipeline.HorizonPeriods, log)
	notifier := alerting.NewLogNotifier(log)

	a.orchestrator = pipeline.NewOrchestrator(
		collector, splitter, retriever, analyzer,
		fuser, engine, capacityAnalyzer, alertGenerator,
		notifier, cfg.Pipeline, log,
	)

	a.ingestor = ingest.NewIngestor(httpClient, ctxStore, a.cache, cfg.Ingest.FeedURLs, log)

	return a, nil
}

func (a *app) close() {
	if a.qdrant != nil {
		a.qdrant.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
