// Package chunk implements the persistent vector index over Redis. Chunks are
// stored as hashes with a binary vector field and searched through a
// per-collection FT index (HNSW, cosine).
package chunk

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/careline-ai/careline/internal/db"
	"github.com/careline-ai/careline/internal/domain"
)

// store is the consumer interface for the chunk index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the vector index consumed by usecase/ingest and
// usecase/retrieval.
type Repo struct {
	store store
}

// New creates a chunk index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the collection's FT index if it does not exist.
// dimensions must match the collection's embedding strategy output.
func (r *Repo) EnsureIndex(ctx context.Context, collection string, dimensions int) error {
	exists, err := r.store.IndexExists(ctx, indexName(collection))
	if err != nil {
		return fmt.Errorf("probe index %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName(collection),
		Prefixes: []string{chunkPrefix(collection)},
		Fields: []db.IndexField{
			{Name: "source_id", Type: db.IndexFieldTag},
			{Name: "chunk_index", Type: db.IndexFieldNumeric},
			{Name: "vector", Type: db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      dimensions,
				VectorDistance: db.DistanceCosine},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	return nil
}

// UpsertChunks writes chunks into the collection, replacing any existing
// chunk with the same ID.
func (r *Repo) UpsertChunks(ctx context.Context, collection string, chunks []domain.Chunk) error {
	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key:    chunkKey(collection, c.ID),
			Fields: chunkFields(c, i),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert chunks: %w: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

// ReplaceSource atomically supersedes the stored chunk set of a source: the
// new chunks are written first, then stale keys from the prior version are
// removed. A concurrent query observes either the old or the new set for a
// given chunk, never a partially written one.
func (r *Repo) ReplaceSource(
	ctx context.Context, collection, sourceID string, chunks []domain.Chunk,
) error {
	prior, err := r.scanSource(ctx, collection, sourceID)
	if err != nil {
		return err
	}

	if err := r.UpsertChunks(ctx, collection, chunks); err != nil {
		return err
	}

	fresh := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		fresh[chunkKey(collection, c.ID)] = struct{}{}
	}

	var stale []string
	for _, key := range prior {
		if _, ok := fresh[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := r.store.DelMulti(ctx, stale); err != nil {
		return fmt.Errorf("delete stale chunks %s: %w: %w", sourceID, err, domain.ErrStoreUnavailable)
	}
	return nil
}

// DeleteSource removes every stored chunk of a source.
func (r *Repo) DeleteSource(ctx context.Context, collection, sourceID string) error {
	keys, err := r.scanSource(ctx, collection, sourceID)
	if err != nil {
		return err
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete source %s: %w: %w", sourceID, err, domain.ErrStoreUnavailable)
	}
	return nil
}

// scanSource lists the stored chunk keys of exactly one source.
func (r *Repo) scanSource(ctx context.Context, collection, sourceID string) ([]string, error) {
	scanned, err := r.store.Scan(ctx, sourcePattern(collection, sourceID))
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w: %w", sourceID, err, domain.ErrStoreUnavailable)
	}
	keys := scanned[:0:0]
	for _, key := range scanned {
		if ownsChunkKey(key, collection, sourceID) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Search runs a KNN query and returns hits ordered by descending similarity,
// ties broken by original chunk order.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32, k int,
) (domain.RetrievalResult, error) {
	exists, err := r.store.IndexExists(ctx, indexName(collection))
	if err != nil {
		return nil, fmt.Errorf("probe index %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	if !exists {
		return nil, domain.ErrCollectionNotFound
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"source_id", "chunk_index", "offset", "text"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", err, domain.ErrStoreUnavailable)
	}

	hits := make(domain.RetrievalResult, 0, len(res.Entries))
	for _, entry := range res.Entries {
		hits = append(hits, parseHit(collection, entry))
	}

	// Redis orders by distance; make the tie-break on equal scores explicit.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return chunkOrder(hits[i].Chunk) < chunkOrder(hits[j].Chunk)
	})

	return hits, nil
}

// Count returns the number of chunks stored in the collection.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	exists, err := r.store.IndexExists(ctx, indexName(collection))
	if err != nil {
		return 0, fmt.Errorf("probe index %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	if !exists {
		return 0, domain.ErrCollectionNotFound
	}

	n, err := r.store.SearchCount(ctx, indexName(collection), "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w: %w", err, domain.ErrStoreUnavailable)
	}
	return n, nil
}

// Drop removes the collection's index and every stored chunk.
func (r *Repo) Drop(ctx context.Context, collection string) error {
	if err := r.store.DropIndex(ctx, indexName(collection)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}

	keys, err := r.store.Scan(ctx, chunkPrefix(collection)+"*")
	if err != nil {
		return fmt.Errorf("scan collection %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete collection %s: %w: %w", collection, err, domain.ErrStoreUnavailable)
	}
	return nil
}
