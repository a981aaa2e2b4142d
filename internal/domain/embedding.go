package domain

import "context"

// Embedding strategies selectable per collection. Switching the strategy of
// an existing collection invalidates stored vectors and requires re-ingestion.
const (
	StrategyExternal      = "external"
	StrategyLocalFallback = "local_fallback"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator synthesizes an answer from a question and retrieved context.
type Generator interface {
	Generate(ctx context.Context, question, docContext string) (string, error)
}
