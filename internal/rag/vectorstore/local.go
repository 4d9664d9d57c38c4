package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"StudyMate/internal/embedding"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"
)

// storedDoc is the on-disk representation of a single embedded chunk.
type storedDoc struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Vector   []float32              `json:"vector"`
}

// localCollection guards one collection's documents with its own RW lock, so
// concurrent searches proceed while a store or clear on the same collection
// is serialized.
type localCollection struct {
	mu   sync.RWMutex
	docs []storedDoc
}

// LocalStore is a persistent, file-backed EmbeddingStore. Each collection is a
// JSON index file under the data directory, created on first use and searched
// by brute-force L2 distance. It is the default backend for development and
// the backend used by the tests; MilvusStore serves the same interface in
// production.
type LocalStore struct {
	dir      string
	embedder embedding.Embedding
	log      *logger.Logger

	mu          sync.Mutex // guards the collections map, not the collections
	collections map[string]*localCollection
}

// NewLocalStore opens (or creates) the index directory and returns a store.
func NewLocalStore(dir string, embedder embedding.Embedding, log *logger.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vector index directory: %w", err)
	}
	return &LocalStore{
		dir:         dir,
		embedder:    embedder,
		log:         log,
		collections: make(map[string]*localCollection),
	}, nil
}

// Store embeds every chunk and upserts (id, text, metadata, vector) rows into
// the named collection. IDs are assigned as "{collection}_{i}" in document
// order within this call, so re-storing the same documents without clearing
// first overwrites the colliding rows instead of duplicating them. The call is
// all-or-nothing: nothing is written if any embedding fails.
func (s *LocalStore) Store(ctx context.Context, collection string, docs []*schema.Document) error {
	if len(docs) == 0 {
		s.log.Warn(fmt.Sprintf("no documents to store in collection '%s'", collection))
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents for collection '%s': %w", collection, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding provider returned %d vectors for %d documents", len(vectors), len(docs))
	}

	coll, err := s.collection(collection)
	if err != nil {
		return err
	}

	coll.mu.Lock()
	defer coll.mu.Unlock()

	for i, doc := range docs {
		row := storedDoc{
			ID:       fmt.Sprintf("%s_%d", collection, i),
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Vector:   vectors[i],
		}
		if idx := findDoc(coll.docs, row.ID); idx >= 0 {
			coll.docs[idx] = row
		} else {
			coll.docs = append(coll.docs, row)
		}
	}

	if err := s.persist(collection, coll.docs); err != nil {
		return err
	}

	s.log.Info(fmt.Sprintf("stored %d documents in collection '%s'", len(docs), collection))
	return nil
}

// Search embeds the query and returns up to topK results ordered by ascending
// L2 distance, restricted to documents whose metadata exactly matches every
// key/value in filter. A missing or empty collection yields an empty result,
// not an error; embedding failures are returned to the caller.
func (s *LocalStore) Search(ctx context.Context, collection, query string, topK int, filter map[string]string) ([]*schema.RetrievedResult, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	coll.mu.RLock()
	defer coll.mu.RUnlock()

	if len(coll.docs) == 0 {
		return []*schema.RetrievedResult{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]*schema.RetrievedResult, 0, topK)
	for _, doc := range coll.docs {
		if !metadataMatches(doc.Metadata, filter) {
			continue
		}
		d := l2Distance(queryVec, doc.Vector)
		results = append(results, &schema.RetrievedResult{
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Distance: &d,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Distance < *results[j].Distance
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats reports the number of documents currently held by a collection.
func (s *LocalStore) Stats(ctx context.Context, collection string) (*schema.CollectionStats, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	coll.mu.RLock()
	defer coll.mu.RUnlock()
	return &schema.CollectionStats{
		CollectionName: collection,
		DocumentCount:  int64(len(coll.docs)),
	}, nil
}

// Clear drops all documents of a collection. Clearing a missing or already
// empty collection is a no-op.
func (s *LocalStore) Clear(ctx context.Context, collection string) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	coll.mu.Lock()
	defer coll.mu.Unlock()

	coll.docs = nil
	if err := os.Remove(s.indexPath(collection)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove index for collection '%s': %w", collection, err)
	}
	s.log.Info(fmt.Sprintf("cleared collection '%s'", collection))
	return nil
}

// collection returns the in-memory handle for a collection, loading its index
// file from disk on first access.
func (s *LocalStore) collection(name string) (*localCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[name]; ok {
		return coll, nil
	}

	coll := &localCollection{}
	data, err := os.ReadFile(s.indexPath(name))
	switch {
	case os.IsNotExist(err):
		// First use of this collection.
	case err != nil:
		return nil, fmt.Errorf("failed to read index for collection '%s': %w", name, err)
	default:
		if err := json.Unmarshal(data, &coll.docs); err != nil {
			return nil, fmt.Errorf("corrupt index for collection '%s': %w", name, err)
		}
	}

	s.collections[name] = coll
	return coll, nil
}

func (s *LocalStore) persist(name string, docs []storedDoc) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode index for collection '%s': %w", name, err)
	}
	if err := os.WriteFile(s.indexPath(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write index for collection '%s': %w", name, err)
	}
	return nil
}

func (s *LocalStore) indexPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func findDoc(docs []storedDoc, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}

// metadataMatches reports whether every filter key is present in the metadata
// with an equal stringified value.
func metadataMatches(metadata map[string]interface{}, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// compile-time check to ensure LocalStore implements the EmbeddingStore interface
var _ interfaces.EmbeddingStore = (*LocalStore)(nil)
