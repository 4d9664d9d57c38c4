package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"StudyMate/internal/models"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"
)

// unknownDistance stands in for results whose backend reported no distance.
// It ranks them behind any reasonable real match without discarding them.
const unknownDistance = 1.0

// DefaultMaxDistance is the distance treated as "completely unrelated" when
// turning an average distance into a confidence score.
const DefaultMaxDistance = 2.0

// Retriever fans a query out over one or more knowledge collections and merges
// the hits into a single distance-ranked list. A failing collection degrades to
// an empty contribution instead of failing the whole retrieval.
type Retriever struct {
	store  interfaces.EmbeddingStore
	scorer interfaces.Scorer
	log    *logger.Logger
}

// New creates a Retriever over the given store. A nil scorer falls back to a
// DistanceScorer with the default distance bound.
func New(store interfaces.EmbeddingStore, scorer interfaces.Scorer, log *logger.Logger) *Retriever {
	if scorer == nil {
		scorer = &DistanceScorer{MaxDistance: DefaultMaxDistance}
	}
	return &Retriever{store: store, scorer: scorer, log: log}
}

// Retrieve queries every collection for up to n results each and merges them by
// ascending distance. Results without a distance sort as if they were at the
// unknown-distance mark. The merged list is capped at 2*n entries.
func (r *Retriever) Retrieve(ctx context.Context, query string, n int, collections []string, filter map[string]string) []*schema.RetrievedResult {
	merged := make([]*schema.RetrievedResult, 0, n*len(collections))
	for _, collection := range collections {
		results, err := r.store.Search(ctx, collection, query, n, filter)
		if err != nil {
			r.log.WithError(models.ErrorInfo{Type: "retrieval_error", Message: err.Error()}).
				Warn(fmt.Sprintf("search failed for collection '%s', skipping it", collection))
			continue
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return effectiveDistance(merged[i]) < effectiveDistance(merged[j])
	})
	if limit := 2 * n; limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// RetrieveFrom queries a single collection. Backend failures degrade to an
// empty result, mirroring Retrieve.
func (r *Retriever) RetrieveFrom(ctx context.Context, collection, query string, n int, filter map[string]string) []*schema.RetrievedResult {
	results, err := r.store.Search(ctx, collection, query, n, filter)
	if err != nil {
		r.log.WithError(models.ErrorInfo{Type: "retrieval_error", Message: err.Error()}).
			Warn(fmt.Sprintf("search failed for collection '%s'", collection))
		return []*schema.RetrievedResult{}
	}
	return results
}

// Confidence scores a retrieved result set with the configured scorer.
func (r *Retriever) Confidence(results []*schema.RetrievedResult) float64 {
	return r.scorer.Score(results)
}

// BuildContext renders retrieved chunks into the numbered context block that is
// injected into the prompt. An empty result set renders as an explicit
// no-information marker so the model does not hallucinate sources.
func BuildContext(results []*schema.RetrievedResult) string {
	if len(results) == 0 {
		return "No relevant information found."
	}

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		docType := metadataString(res.Metadata, schema.MetadataKeyType, "unknown")
		source := metadataString(res.Metadata, schema.MetadataKeySource, "unknown")
		fmt.Fprintf(&b, "Document %d (%s, source: %s):\n%s", i+1, docType, source, res.Text)
	}
	return b.String()
}

func effectiveDistance(res *schema.RetrievedResult) float64 {
	if res.Distance == nil {
		return unknownDistance
	}
	return *res.Distance
}

func metadataString(metadata map[string]interface{}, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// DistanceScorer maps the average distance of a result set onto [0,1], treating
// MaxDistance as fully unrelated. Scores are rounded to two decimals.
type DistanceScorer struct {
	MaxDistance float64
}

// Score returns 0 for an empty result set, otherwise 1 - avg/MaxDistance
// clamped into [0,1].
func (s *DistanceScorer) Score(results []*schema.RetrievedResult) float64 {
	if len(results) == 0 {
		return 0.0
	}
	maxDistance := s.MaxDistance
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	var sum float64
	for _, res := range results {
		sum += effectiveDistance(res)
	}
	avg := sum / float64(len(results))

	confidence := 1.0 - avg/maxDistance
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return math.Round(confidence*100) / 100
}

// compile-time check to ensure DistanceScorer implements the Scorer interface
var _ interfaces.Scorer = (*DistanceScorer)(nil)
