package interfaces

import (
	"StudyMate/internal/rag/schema"
	"context"
)

// Splitter is the interface for splitting raw text into bounded, overlapping chunks.
type Splitter interface {
	Split(text string, metadata map[string]interface{}) []*schema.Document
}

// EmbeddingStore is the interface for persisting chunks into named collections and
// querying them by semantic similarity. Store is all-or-nothing per call; Search
// returns an explicit error on backend failure so callers can distinguish
// "no matches" from "backend down" (user-facing degradation happens above).
type EmbeddingStore interface {
	Store(ctx context.Context, collection string, docs []*schema.Document) error
	Search(ctx context.Context, collection, query string, topK int, filter map[string]string) ([]*schema.RetrievedResult, error)
	Stats(ctx context.Context, collection string) (*schema.CollectionStats, error)
	Clear(ctx context.Context, collection string) error
}

// Scorer derives a [0,1] confidence score from the distance distribution of a
// retrieved result set. Pluggable so the bounded-distance assumption can be
// swapped per embedding backend.
type Scorer interface {
	Score(results []*schema.RetrievedResult) float64
}
