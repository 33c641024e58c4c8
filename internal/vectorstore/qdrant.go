package vectorstore

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/logger"
)

// QdrantStore is the market-knowledge store backed by a Qdrant collection.
// It implements contracts.ContextStore; ingestion writes through SaveSnippet.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	embedder    Embedder
	logger      *logger.Logger
	collection  string
	vectorSize  uint64
}

// NewQdrantStore connects to Qdrant over gRPC and ensures the collection
// exists. An API key switches the connection to TLS with key auth.
func NewQdrantStore(cfg *config.Config, embedder Embedder, log *logger.Logger) (*QdrantStore, error) {
	var dialOpts []grpc.DialOption

	if cfg.Qdrant.APIKey != "" {
		creds := credentials.NewTLS(&tls.Config{})
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(creds))

		apiKey := cfg.Qdrant.APIKey
		authInterceptor := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(authInterceptor))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(cfg.Qdrant.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant grpc client: %w", err)
	}

	store := &QdrantStore{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		embedder:    embedder,
		logger:      log.WithField("component", "qdrant_store"),
		collection:  cfg.Qdrant.Collection,
		vectorSize:  uint64(cfg.Qdrant.VectorSize),
	}

	if err := store.ensureCollection(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return store, nil
}

// Close tears down the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

// ensureCollection creates the collection if it does not exist yet.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	res, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list qdrant collections: %w", err)
	}

	for _, c := range res.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	s.logger.WithField("collection", s.collection).Info("Creating qdrant collection")

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     s.vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}

	return nil
}

// SaveSnippet vectorizes a snippet and upserts it into the collection.
func (s *QdrantStore) SaveSnippet(ctx context.Context, snippet contracts.ContextSnippet) error {
	vector, err := s.embedder.Embed(ctx, snippet.Text)
	if err != nil {
		return fmt.Errorf("failed to embed snippet: %w", err)
	}

	payload := map[string]*qdrant.Value{
		"text":   {Kind: &qdrant.Value_StringValue{StringValue: snippet.Text}},
		"source": {Kind: &qdrant.Value_StringValue{StringValue: snippet.Source}},
		"tags":   {Kind: &qdrant.Value_StringValue{StringValue: strings.Join(snippet.Tags, ",")}},
	}
	if !snippet.PublishedAt.IsZero() {
		payload["published_at"] = &qdrant.Value{
			Kind: &qdrant.Value_StringValue{StringValue: snippet.PublishedAt.Format(time.RFC3339)},
		}
	}

	waitUpsert := true
	_, err = s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{
			{
				Id: &qdrant.PointId{
					PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.New().String()},
				},
				Vectors: &qdrant.Vectors{
					VectorsOptions: &qdrant.Vectors_Vector{
						Vector: &qdrant.Vector{Data: vector},
					},
				},
				Payload: payload,
			},
		},
		Wait: &waitUpsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert snippet: %w", err)
	}

	return nil
}

// SearchMarketContext embeds the query and returns the topK most relevant
// snippets, ordered by descending relevance.
func (s *QdrantStore) SearchMarketContext(ctx context.Context, query string, topK int) ([]contracts.ContextSnippet, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	withPayload := true
	res, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: withPayload}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	snippets := make([]contracts.ContextSnippet, 0, len(res.GetResult()))
	for _, p := range res.GetResult() {
		payload := p.GetPayload()

		snippet := contracts.ContextSnippet{
			Text:   payload["text"].GetStringValue(),
			Source: payload["source"].GetStringValue(),
			// Cosine similarity in [-1,1] maps onto relevance in [0,1].
			RelevanceScore: clamp01(float64(1+p.GetScore()) / 2),
		}
		if tags := payload["tags"].GetStringValue(); tags != "" {
			snippet.Tags = strings.Split(tags, ",")
		}
		if published := payload["published_at"].GetStringValue(); published != "" {
			if ts, err := time.Parse(time.RFC3339, published); err == nil {
				snippet.PublishedAt = ts
			}
		}
		snippets = append(snippets, snippet)
	}

	return snippets, nil
}

// Ping probes the qdrant server during the collection phase.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant unavailable: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
