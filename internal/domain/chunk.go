package domain

import "fmt"

// KeyPrefix namespaces all careline keys in the database.
const KeyPrefix = "careline:"

// Document is a raw source document handed to the ingestion pipeline.
// Immutable once chunked; re-ingesting the same SourceID supersedes the
// previous chunk set instead of merging into it.
type Document struct {
	SourceID    string
	RawText     string
	ContentType string
}

// Chunk is a bounded slice of a source document with its embedding vector.
type Chunk struct {
	ID       string
	SourceID string
	Text     string
	Offset   int
	Vector   []float32
}

// ChunkID builds the stable chunk identifier for a source and chunk index.
func ChunkID(sourceID string, index int) string {
	return fmt.Sprintf("%s:%d", sourceID, index)
}

// ScoredChunk is a single retrieval hit.
type ScoredChunk struct {
	Chunk
	Score float64
}

// RetrievalResult is an ordered sequence of hits, descending by score,
// ties broken by original chunk order. May be empty.
type RetrievalResult []ScoredChunk
