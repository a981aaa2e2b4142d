// Package ingest turns raw support documents into embedded chunks in the
// vector index: split, vectorize, replace the source's stored set.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/logger"
)

// Service ingests documents into per-collection vector indexes.
type Service struct {
	chunks     ChunkStore
	embed      Embedder
	chunker    *chunker
	dimensions int
}

// New creates an ingestion service. size and overlap shape the chunk
// windows; dimensions must match the embedder's output width.
func New(chunks ChunkStore, embed Embedder, size, overlap, dimensions int) *Service {
	return &Service{
		chunks:     chunks,
		embed:      embed,
		chunker:    newChunker(size, overlap),
		dimensions: dimensions,
	}
}

// Ingest chunks and embeds a document, then replaces the source's stored
// chunk set so re-ingesting the same source never leaves stale chunks
// behind. Returns the number of chunks written.
func (s *Service) Ingest(ctx context.Context, collection string, doc domain.Document) (int, error) {
	if strings.TrimSpace(doc.SourceID) == "" {
		return 0, fmt.Errorf("%w: empty source id", domain.ErrInvalidInput)
	}
	spans := s.chunker.Split(doc.RawText)
	if len(spans) == 0 {
		return 0, fmt.Errorf("%w: document has no content", domain.ErrInvalidInput)
	}

	if err := s.chunks.EnsureIndex(ctx, collection, s.dimensions); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, sp := range spans {
		res, err := s.embed.Embed(ctx, sp.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, doc.SourceID, err)
		}
		if len(res.Embedding) != s.dimensions {
			return 0, fmt.Errorf("%w: got %d, index expects %d",
				domain.ErrVectorDimMismatch, len(res.Embedding), s.dimensions)
		}
		chunks[i] = domain.Chunk{
			ID:       domain.ChunkID(doc.SourceID, i),
			SourceID: doc.SourceID,
			Text:     sp.Text,
			Offset:   sp.Offset,
			Vector:   res.Embedding,
		}
	}

	if err := s.chunks.ReplaceSource(ctx, collection, doc.SourceID, chunks); err != nil {
		return 0, fmt.Errorf("replace source %s: %w", doc.SourceID, err)
	}

	logger.FromContext(ctx).Info("document ingested",
		zap.String("collection", collection),
		zap.String("source_id", doc.SourceID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// Remove deletes every stored chunk of a source.
func (s *Service) Remove(ctx context.Context, collection, sourceID string) error {
	if strings.TrimSpace(sourceID) == "" {
		return fmt.Errorf("%w: empty source id", domain.ErrInvalidInput)
	}
	if err := s.chunks.DeleteSource(ctx, collection, sourceID); err != nil {
		return fmt.Errorf("delete source %s: %w", sourceID, err)
	}
	return nil
}

// Count reports how many chunks the collection holds.
func (s *Service) Count(ctx context.Context, collection string) (int, error) {
	return s.chunks.Count(ctx, collection)
}
