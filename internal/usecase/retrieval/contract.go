package retrieval

import (
	"context"

	"github.com/careline-ai/careline/internal/domain"
)

// Searcher runs KNN queries against a collection's vector index.
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, k int) (domain.RetrievalResult, error)
}

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces a grounded answer from the question and the retrieved
// document context.
type Generator interface {
	Generate(ctx context.Context, question, docContext string) (string, error)
}
