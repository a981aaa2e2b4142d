package chunk

import (
	"context"
	"errors"
	"testing"

	"github.com/careline-ai/careline/internal/db"
	"github.com/careline-ai/careline/internal/domain"
)

// --- Mock ---

type mockStore struct {
	hashes    map[string]map[string]string
	indexes   map[string]*db.IndexDefinition
	searchRes *db.SearchResult
	searchErr error
	count     int
	err       error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.err != nil {
		return m.err
	}
	for _, it := range items {
		m.hashes[it.Key] = it.Fields
	}
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.hashes, k)
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	// Only prefix patterns ("prefix*") are used by the repository.
	prefix := pattern[:len(pattern)-1]
	var keys []string
	for k := range m.hashes {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(m.indexes, name)
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *mockStore) SearchKNN(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchRes == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchRes, nil
}

func (m *mockStore) SearchCount(_ context.Context, _, _ string) (int, error) {
	return m.count, m.err
}

// --- Tests ---

func chunkOf(sourceID string, idx int, text string) domain.Chunk {
	return domain.Chunk{
		ID:       domain.ChunkID(sourceID, idx),
		SourceID: sourceID,
		Text:     text,
		Vector:   []float32{0.5, 0.5},
	}
}

func TestEnsureIndex(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	if err := repo.EnsureIndex(context.Background(), "docs", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok := store.indexes["careline:docs:idx"]
	if !ok {
		t.Fatal("index not created")
	}
	var vec *db.IndexField
	for i := range def.Fields {
		if def.Fields[i].Type == db.IndexFieldVector {
			vec = &def.Fields[i]
		}
	}
	if vec == nil {
		t.Fatal("no vector field in index definition")
	}
	if vec.VectorDim != 2 || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("vector field = %+v", vec)
	}

	// Second call is a no-op.
	if err := repo.EnsureIndex(context.Background(), "docs", 2); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
}

func TestReplaceSource_RemovesStaleChunks(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	ctx := context.Background()
	initial := []domain.Chunk{
		chunkOf("man-1", 0, "old a"),
		chunkOf("man-1", 1, "old b"),
		chunkOf("man-1", 2, "old c"),
	}
	if err := repo.ReplaceSource(ctx, "docs", "man-1", initial); err != nil {
		t.Fatalf("initial write: %v", err)
	}
	if len(store.hashes) != 3 {
		t.Fatalf("stored %d keys, want 3", len(store.hashes))
	}

	// Re-ingest with fewer chunks; the extra key must disappear.
	updated := []domain.Chunk{
		chunkOf("man-1", 0, "new a"),
		chunkOf("man-1", 1, "new b"),
	}
	if err := repo.ReplaceSource(ctx, "docs", "man-1", updated); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(store.hashes) != 2 {
		t.Fatalf("stored %d keys after replace, want 2", len(store.hashes))
	}
	if got := store.hashes["careline:docs:chunk:man-1:0"]["text"]; got != "new a" {
		t.Errorf("chunk 0 text = %q", got)
	}
	if _, ok := store.hashes["careline:docs:chunk:man-1:2"]; ok {
		t.Error("stale chunk survived the replace")
	}
}

func TestReplaceSource_LeavesOtherSourcesAlone(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	if err := repo.ReplaceSource(ctx, "docs", "man-1", []domain.Chunk{chunkOf("man-1", 0, "a")}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceSource(ctx, "docs", "man-2", []domain.Chunk{chunkOf("man-2", 0, "b")}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.hashes["careline:docs:chunk:man-1:0"]; !ok {
		t.Error("replacing man-2 must not touch man-1")
	}
}

func TestSourceOpsScopedToExactSourceID(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	// "doc:v2" extends "doc" with a colon segment, so the scan glob for
	// "doc" matches its keys too.
	if err := repo.ReplaceSource(ctx, "docs", "doc", []domain.Chunk{chunkOf("doc", 0, "a")}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceSource(ctx, "docs", "doc:v2", []domain.Chunk{chunkOf("doc:v2", 0, "b")}); err != nil {
		t.Fatal(err)
	}

	if err := repo.ReplaceSource(ctx, "docs", "doc", []domain.Chunk{chunkOf("doc", 0, "a2")}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.hashes["careline:docs:chunk:doc:v2:0"]; !ok {
		t.Error("replacing doc removed doc:v2 chunks")
	}

	if err := repo.DeleteSource(ctx, "docs", "doc"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.hashes["careline:docs:chunk:doc:v2:0"]; !ok {
		t.Error("deleting doc removed doc:v2 chunks")
	}
	if _, ok := store.hashes["careline:docs:chunk:doc:0"]; ok {
		t.Error("doc's own chunk survived the delete")
	}
}

func TestDeleteSource(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	if err := repo.ReplaceSource(ctx, "docs", "man-1", []domain.Chunk{
		chunkOf("man-1", 0, "a"), chunkOf("man-1", 1, "b"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteSource(ctx, "docs", "man-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.hashes) != 0 {
		t.Errorf("%d keys remain", len(store.hashes))
	}
}

func TestSearch_MissingCollection(t *testing.T) {
	repo := New(newMockStore())

	_, err := repo.Search(context.Background(), "nope", []float32{0.1, 0.2}, 5)
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Errorf("err = %v, want ErrCollectionNotFound", err)
	}
}

func TestSearch_OrdersByScoreThenChunkIndex(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	if err := repo.EnsureIndex(ctx, "docs", 2); err != nil {
		t.Fatal(err)
	}
	store.searchRes = &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			{Key: "careline:docs:chunk:man-1:2", Score: 0.8,
				Fields: map[string]string{"source_id": "man-1", "text": "c", "offset": "200"}},
			{Key: "careline:docs:chunk:man-1:0", Score: 0.8,
				Fields: map[string]string{"source_id": "man-1", "text": "a", "offset": "0"}},
			{Key: "careline:docs:chunk:man-1:1", Score: 0.9,
				Fields: map[string]string{"source_id": "man-1", "text": "b", "offset": "100"}},
		},
	}

	hits, err := repo.Search(ctx, "docs", []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits", len(hits))
	}
	if hits[0].Text != "b" {
		t.Errorf("best hit = %q, want the highest score", hits[0].Text)
	}
	// Equal scores fall back to chunk order.
	if hits[1].Text != "a" || hits[2].Text != "c" {
		t.Errorf("tie-break order = %q, %q", hits[1].Text, hits[2].Text)
	}
	if hits[1].Offset != 0 || hits[1].SourceID != "man-1" {
		t.Errorf("hit fields = %+v", hits[1].Chunk)
	}
}

func TestCount(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	if _, err := repo.Count(ctx, "docs"); !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Errorf("err = %v, want ErrCollectionNotFound", err)
	}

	if err := repo.EnsureIndex(ctx, "docs", 2); err != nil {
		t.Fatal(err)
	}
	store.count = 7
	n, err := repo.Count(ctx, "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("count = %d, want 7", n)
	}
}

func TestDrop(t *testing.T) {
	store := newMockStore()
	repo := New(store)
	ctx := context.Background()

	if err := repo.EnsureIndex(ctx, "docs", 2); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertChunks(ctx, "docs", []domain.Chunk{chunkOf("man-1", 0, "a")}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Drop(ctx, "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.indexes) != 0 || len(store.hashes) != 0 {
		t.Error("drop left data behind")
	}

	// Dropping a missing collection is not an error.
	if err := repo.Drop(ctx, "docs"); err != nil {
		t.Errorf("second drop: %v", err)
	}
}

func TestStoreFailureWrapsErrStoreUnavailable(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("conn reset")
	repo := New(store)

	if err := repo.EnsureIndex(context.Background(), "docs", 2); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}
