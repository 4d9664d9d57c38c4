package vectorstore

import (
	"context"
	"errors"
	"testing"

	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"
)

// fakeEmbedder returns fixed vectors per text so distances are predictable.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedding provider down")
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func newTestStore(t *testing.T, embedder *fakeEmbedder) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), embedder, logger.New("test", "", ""))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return store
}

func doc(text string, metadata map[string]interface{}) *schema.Document {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &schema.Document{Text: text, Metadata: metadata}
}

func TestLocalStore_SearchOrdersByDistance(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"near":  {1, 0},
		"mid":   {2, 0},
		"far":   {5, 0},
		"query": {0, 0},
	}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	err := store.Store(ctx, "scholarships", []*schema.Document{doc("far", nil), doc("near", nil), doc("mid", nil)})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	results, err := store.Search(ctx, "scholarships", "query", 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"near", "mid", "far"} {
		if results[i].Text != want {
			t.Errorf("position %d = %q, expected %q", i, results[i].Text, want)
		}
		if results[i].Distance == nil {
			t.Errorf("position %d missing distance", i)
		}
	}
}

func TestLocalStore_TopKLimitsResults(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	docs := []*schema.Document{doc("a", nil), doc("b", nil), doc("c", nil), doc("d", nil)}
	if err := store.Store(ctx, "scholarships", docs); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	results, err := store.Search(ctx, "scholarships", "q", 2, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestLocalStore_RestoreOverwritesIDs(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	docs := []*schema.Document{doc("a", nil), doc("b", nil), doc("c", nil)}
	if err := store.Store(ctx, "scholarships", docs); err != nil {
		t.Fatalf("first Store() error = %v", err)
	}
	if err := store.Store(ctx, "scholarships", docs); err != nil {
		t.Fatalf("second Store() error = %v", err)
	}

	stats, err := store.Stats(ctx, "scholarships")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 3 {
		t.Errorf("document count = %d after re-store, expected 3", stats.DocumentCount)
	}
}

func TestLocalStore_EmptyDocsIsNoOp(t *testing.T) {
	store := newTestStore(t, &fakeEmbedder{})
	ctx := context.Background()

	if err := store.Store(ctx, "scholarships", nil); err != nil {
		t.Errorf("Store(empty) error = %v, expected nil", err)
	}
	stats, err := store.Stats(ctx, "scholarships")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 0 {
		t.Errorf("document count = %d, expected 0", stats.DocumentCount)
	}
}

func TestLocalStore_EmbeddingFailureStoresNothing(t *testing.T) {
	embedder := &fakeEmbedder{fail: true}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	err := store.Store(ctx, "scholarships", []*schema.Document{doc("a", nil)})
	if err == nil {
		t.Fatal("expected an error when embedding fails")
	}

	embedder.fail = false
	stats, err := store.Stats(ctx, "scholarships")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 0 {
		t.Errorf("document count = %d after failed store, expected 0", stats.DocumentCount)
	}
}

func TestLocalStore_SearchMissingCollection(t *testing.T) {
	store := newTestStore(t, &fakeEmbedder{})

	results, err := store.Search(context.Background(), "nope", "q", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v, expected nil for missing collection", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestLocalStore_MetadataFilter(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	docs := []*schema.Document{
		doc("german programs", map[string]interface{}{schema.MetadataKeyCountry: "Germany"}),
		doc("french programs", map[string]interface{}{schema.MetadataKeyCountry: "France"}),
	}
	if err := store.Store(ctx, "scholarships", docs); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	results, err := store.Search(ctx, "scholarships", "q", 5, map[string]string{schema.MetadataKeyCountry: "Germany"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Text != "german programs" {
		t.Errorf("filter returned %d results, expected only the German document", len(results))
	}
}

func TestLocalStore_ClearIsIdempotent(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	if err := store.Store(ctx, "scholarships", []*schema.Document{doc("a", nil)}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Clear(ctx, "scholarships"); err != nil {
		t.Fatalf("first Clear() error = %v", err)
	}
	if err := store.Clear(ctx, "scholarships"); err != nil {
		t.Errorf("second Clear() error = %v, expected nil", err)
	}
	if err := store.Clear(ctx, "never_existed"); err != nil {
		t.Errorf("Clear of missing collection error = %v, expected nil", err)
	}

	stats, err := store.Stats(ctx, "scholarships")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 0 {
		t.Errorf("document count = %d after clear, expected 0", stats.DocumentCount)
	}
}

func TestLocalStore_PersistsAcrossInstances(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	dir := t.TempDir()
	log := logger.New("test", "", "")

	first, err := NewLocalStore(dir, embedder, log)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()
	if err := first.Store(ctx, "cities", []*schema.Document{doc("Berlin", nil), doc("Paris", nil)}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	second, err := NewLocalStore(dir, embedder, log)
	if err != nil {
		t.Fatalf("NewLocalStore() reopen error = %v", err)
	}
	stats, err := second.Stats(ctx, "cities")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DocumentCount != 2 {
		t.Errorf("reopened store sees %d documents, expected 2", stats.DocumentCount)
	}
}
