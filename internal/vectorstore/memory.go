package vectorstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/partsflow/demandcast/internal/contracts"
)

// MemoryStore is an in-memory ContextStore for development and tests. Scoring
// is keyword overlap, not embeddings; ordering semantics match QdrantStore.
type MemoryStore struct {
	mu       sync.RWMutex
	snippets []contracts.ContextSnippet
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnippet appends a snippet to the store.
func (m *MemoryStore) SaveSnippet(_ context.Context, snippet contracts.ContextSnippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snippets = append(m.snippets, snippet)
	return nil
}

// SearchMarketContext scores snippets by query-term overlap and returns the
// topK best, descending.
func (m *MemoryStore) SearchMarketContext(_ context.Context, query string, topK int) ([]contracts.ContextSnippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))

	scored := make([]contracts.ContextSnippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		text := strings.ToLower(s.Text + " " + strings.Join(s.Tags, " "))
		hits := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		if hits == 0 || len(terms) == 0 {
			continue
		}
		s.RelevanceScore = float64(hits) / float64(len(terms))
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
