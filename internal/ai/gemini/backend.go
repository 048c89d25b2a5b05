package gemini

import (
	"context"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/scoring"
	"github.com/spigell/job-matcher/internal/utils"
)

const defaultMaxLogLength = 200

// EmbeddingBackend is a scoring.Backend that compares Gemini embeddings.
type EmbeddingBackend struct {
	embedder  *Embedder
	logger    *zap.Logger
	maxLogLen int
}

var _ scoring.Backend = (*EmbeddingBackend)(nil)

func NewEmbeddingBackend(embedder *Embedder, log *zap.Logger, maxLogLength int) *EmbeddingBackend {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &EmbeddingBackend{
		embedder:  embedder,
		logger:    logger.WithFields(log, zap.String(logger.FieldBackend, "gemini"), zap.String("model", embedder.Model())),
		maxLogLen: maxLogLength,
	}
}

func (b *EmbeddingBackend) Name() string { return "gemini" }

// Similarities embeds the user document together with the job documents and
// returns the cosine of the user vector with each job vector. Negative cosines are 0.
func (b *EmbeddingBackend) Similarities(ctx context.Context, corpus scoring.Corpus) ([]float64, error) {
	if len(corpus.Jobs) == 0 {
		return []float64{}, nil
	}

	b.logger.Debug("gemini embed request",
		zap.Int("documents", len(corpus.Jobs)+1),
		zap.Int("user_document_length", utf8.RuneCountInString(corpus.User)),
		zap.String("user_document_preview", utils.TruncateForLog(corpus.User, b.maxLogLen)),
	)

	docs := append([]string{corpus.User}, corpus.Jobs...)
	vectors, err := b.embedder.Embed(ctx, docs)
	if err != nil {
		return nil, err
	}

	sims := make([]float64, len(corpus.Jobs))
	for i := range sims {
		sims[i] = cosine(vectors[0], vectors[i+1])
	}

	b.logger.Debug("gemini embed response", zap.Int("vectors", len(vectors)))

	return sims, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(sim) || sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}
