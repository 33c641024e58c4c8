package vectorstore

import (
	"context"

	"github.com/partsflow/demandcast/internal/contracts"
)

// Store is the full context-store surface: retrieval and probing for the
// pipeline plus write-through for ingestion.
type Store interface {
	contracts.ContextStore
	SaveSnippet(ctx context.Context, snippet contracts.ContextSnippet) error
}

var (
	_ Store = (*QdrantStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
