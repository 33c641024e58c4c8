package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/partsflow/demandcast/pkg/config"
	"github.com/partsflow/demandcast/pkg/httputil"
	"github.com/partsflow/demandcast/pkg/logger"
)

// Embedder turns text into a dense vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAIEmbedder creates an embedder from config.
func NewOpenAIEmbedder(cfg *config.Config, log *logger.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		httpClient: httputil.New(cfg, log),
		logger:     log.WithField("component", "embedder"),
		baseURL:    strings.TrimRight(cfg.Embedding.BaseURL, "/"),
		apiKey:     cfg.Embedding.APIKey,
		model:      cfg.Embedding.Model,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed vectorizes a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqURL := e.baseURL + "/embeddings"

	headers := map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	}

	resp, err := e.httpClient.PostJSONWithHeaders(ctx, reqURL, embeddingRequest{
		Model: e.model,
		Input: text,
	}, headers)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(payload.Data) == 0 || len(payload.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding API returned no vector")
	}

	return payload.Data[0].Embedding, nil
}
