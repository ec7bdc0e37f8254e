package kialo

import (
	"context"
	"math"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingRanker ranks claims by cosine similarity between the query vector
// and claim vectors computed once at index time.
type EmbeddingRanker struct {
	embedder Embedder
	vectors  [][]float32
}

// NewEmbeddingRanker creates a ranker backed by embedder.
func NewEmbeddingRanker(embedder Embedder) *EmbeddingRanker {
	return &EmbeddingRanker{embedder: embedder}
}

func (r *EmbeddingRanker) Index(ctx context.Context, claims []model.Claim) error {
	logger := logging.From(ctx)
	r.vectors = make([][]float32, len(claims))
	for i, c := range claims {
		vec, err := r.embedder.Embedding(ctx, string(c))
		if err != nil {
			return goerr.Wrap(err, "failed to embed claim", goerr.V("claim", c))
		}
		r.vectors[i] = vec

		if (i+1)%100 == 0 {
			logger.Debug("embedding claims", "done", i+1, "total", len(claims))
		}
	}
	return nil
}

func (r *EmbeddingRanker) Score(ctx context.Context, query string) ([]float64, error) {
	q, err := r.embedder.Embedding(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	scores := make([]float64, len(r.vectors))
	for i, v := range r.vectors {
		scores[i] = cosineSimilarity(q, v)
	}
	return scores, nil
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
