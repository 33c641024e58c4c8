package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/logger"
	"github.com/partsflow/demandcast/pkg/redis"
)

// Retriever fetches top-K market context for a category, with a short-lived
// redis cache in front of the vector store. Retrieval is fail-soft: errors
// surface to the caller, which proceeds with empty context.
type Retriever struct {
	store  contracts.ContextStore
	cache  *redis.Cache
	topK   int
	logger *logger.Logger
}

// NewRetriever creates a retriever. cache may be nil when redis is disabled.
func NewRetriever(store contracts.ContextStore, cache *redis.Cache, topK int, log *logger.Logger) *Retriever {
	return &Retriever{
		store:  store,
		cache:  cache,
		topK:   topK,
		logger: log.WithField("component", "retriever"),
	}
}

// RetrieveContext returns the category's market context, ordered by
// descending relevance. Cache hits skip the vector store entirely.
func (r *Retriever) RetrieveContext(ctx context.Context, batch contracts.CategoryBatch) (contracts.CategoryContext, error) {
	cc := contracts.CategoryContext{CategoryID: batch.CategoryID}

	if r.cache != nil {
		var cached []contracts.ContextSnippet
		found, err := r.cache.Get(ctx, redis.CategoryContextKey(batch.CategoryID), &cached)
		if err == nil && found {
			cc.Snippets = cached
			r.logger.WithField("category", batch.CategoryID).Debug("Context cache hit")
			return cc, nil
		}
	}

	query := buildQuery(batch)
	snippets, err := r.store.SearchMarketContext(ctx, query, r.topK)
	if err != nil {
		return cc, fmt.Errorf("context retrieval for %s failed: %w", batch.CategoryID, err)
	}
	cc.Snippets = snippets

	if r.cache != nil && len(snippets) > 0 {
		if err := r.cache.Set(ctx, redis.CategoryContextKey(batch.CategoryID), snippets, redis.TTLMedium); err != nil {
			r.logger.WithError(err).WithField("category", batch.CategoryID).Warn("Failed to cache context")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"category": batch.CategoryID,
		"snippets": len(snippets),
	}).Debug("Retrieved category context")

	return cc, nil
}

// buildQuery renders the batch into a retrieval query.
func buildQuery(batch contracts.CategoryBatch) string {
	parts := []string{batch.DisplayName}
	if batch.Description != "" {
		parts = append(parts, batch.Description)
	}
	parts = append(parts, "demand trends for "+strings.Join(batch.Members, " "))
	return strings.Join(parts, ". ")
}
