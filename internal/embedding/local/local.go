// Package local provides a deterministic embedding fallback with no external
// dependency. Vectors are a byte-fold projection of the text, so identical
// input always yields an identical vector. Not semantically meaningful, but
// it keeps retrieval functional when no provider is configured.
package local

import (
	"context"
	"math"

	"github.com/careline-ai/careline/internal/domain"
)

// Embedder implements domain.Embedder with a hash-based projection.
type Embedder struct {
	dimensions int
}

var _ domain.Embedder = (*Embedder)(nil)

// New creates a local embedder producing vectors of the given dimensionality.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &Embedder{dimensions: dimensions}
}

// Dimensions returns the fixed output vector length.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed folds the UTF-8 bytes of text into dimension buckets with position
// mixing and L2-normalizes the result.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v := make([]float32, e.dimensions)
	for i, b := range []byte(text) {
		// Position mixing keeps permutations of the same bytes from
		// colliding into one vector.
		bucket := (i*31 + int(b)) % e.dimensions
		v[bucket] += float32(b) / 255.0
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}

	return domain.EmbeddingResult{Embedding: v}, nil
}
