package ingest

import (
	"context"

	"github.com/careline-ai/careline/internal/domain"
)

// ChunkStore persists embedded chunks into a collection's vector index.
type ChunkStore interface {
	EnsureIndex(ctx context.Context, collection string, dimensions int) error
	ReplaceSource(ctx context.Context, collection, sourceID string, chunks []domain.Chunk) error
	DeleteSource(ctx context.Context, collection, sourceID string) error
	Count(ctx context.Context, collection string) (int, error)
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
