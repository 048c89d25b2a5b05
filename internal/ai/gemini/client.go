// Package gemini scores job similarity with Gemini text embeddings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-matcher/internal/utils"
)

const (
	defaultModel        = "gemini-embedding-001"
	defaultMaxRetries   = 2
	defaultRetryBackoff = 2 * time.Second
	// Gemini accepts at most this many contents per embedding request.
	maxBatchSize = 100
)

type embedContenter interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder wraps the Google GenAI client to turn documents into embedding vectors.
type Embedder struct {
	models     embedContenter
	modelName  string
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewEmbedder creates an Embedder configured for the Gemini API backend.
func NewEmbedder(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, model, logger), nil
}

func newEmbedder(models embedContenter, model string, logger *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		models:     models,
		modelName:  model,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
	}
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.modelName
}

// Embed returns one vector per document, in order.
func (e *Embedder) Embed(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += maxBatchSize {
		end := min(start+maxBatchSize, len(docs))

		batch, err := e.embedBatch(ctx, docs[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, docs []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, genai.NewContentFromText(doc, genai.RoleUser))
	}

	cfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}

	var (
		resp    *genai.EmbedContentResponse
		lastErr error
	)
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.WaitFor(ctx, e.backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		resp, lastErr = e.models.EmbedContent(ctx, e.modelName, contents, cfg)
		if lastErr == nil {
			break
		}
		if !isTemporary(lastErr) {
			return nil, fmt.Errorf("embed content: %w", lastErr)
		}

		e.logger.Warn("gemini embed request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("embed content after %d attempts: %w", e.maxRetries+1, lastErr)
	}

	if resp == nil || len(resp.Embeddings) != len(docs) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d documents", got, len(docs))
	}

	vectors := make([][]float32, 0, len(docs))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned an empty embedding for document %d", i)
		}
		vectors = append(vectors, embedding.Values)
	}

	return vectors, nil
}

func isTemporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
