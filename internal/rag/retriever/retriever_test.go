package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"
)

// fakeStore serves canned results per collection and can fail on demand.
type fakeStore struct {
	results map[string][]*schema.RetrievedResult
	failing map[string]bool
}

func (f *fakeStore) Store(ctx context.Context, collection string, docs []*schema.Document) error {
	return nil
}

func (f *fakeStore) Search(ctx context.Context, collection, query string, topK int, filter map[string]string) ([]*schema.RetrievedResult, error) {
	if f.failing[collection] {
		return nil, errors.New("backend down")
	}
	results := f.results[collection]
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (f *fakeStore) Stats(ctx context.Context, collection string) (*schema.CollectionStats, error) {
	return &schema.CollectionStats{CollectionName: collection}, nil
}

func (f *fakeStore) Clear(ctx context.Context, collection string) error { return nil }

func result(text string, distance float64) *schema.RetrievedResult {
	return &schema.RetrievedResult{
		Text:     text,
		Metadata: map[string]interface{}{},
		Distance: &distance,
	}
}

func resultNoDistance(text string) *schema.RetrievedResult {
	return &schema.RetrievedResult{Text: text, Metadata: map[string]interface{}{}}
}

func newTestRetriever(store *fakeStore) *Retriever {
	return New(store, nil, logger.New("test", "", ""))
}

func TestRetrieve_MergesSortedByDistance(t *testing.T) {
	store := &fakeStore{results: map[string][]*schema.RetrievedResult{
		"scholarships": {result("b", 0.5), result("d", 1.2)},
		"country_info": {result("a", 0.1), result("c", 0.9)},
	}}
	r := newTestRetriever(store)

	merged := r.Retrieve(context.Background(), "q", 5, []string{"scholarships", "country_info"}, nil)
	if len(merged) != 4 {
		t.Fatalf("expected 4 results, got %d", len(merged))
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if merged[i].Text != want {
			t.Errorf("position %d = %q, expected %q", i, merged[i].Text, want)
		}
	}
}

func TestRetrieve_MissingDistanceSortsAsOne(t *testing.T) {
	store := &fakeStore{results: map[string][]*schema.RetrievedResult{
		"scholarships": {resultNoDistance("unknown"), result("near", 0.2), result("far", 1.8)},
	}}
	r := newTestRetriever(store)

	merged := r.Retrieve(context.Background(), "q", 5, []string{"scholarships"}, nil)
	if len(merged) != 3 {
		t.Fatalf("expected 3 results, got %d", len(merged))
	}
	if merged[0].Text != "near" || merged[1].Text != "unknown" || merged[2].Text != "far" {
		t.Errorf("unexpected order: %q, %q, %q", merged[0].Text, merged[1].Text, merged[2].Text)
	}
}

func TestRetrieve_TruncatesToTwiceN(t *testing.T) {
	many := make([]*schema.RetrievedResult, 6)
	for i := range many {
		many[i] = result("x", float64(i)*0.1)
	}
	store := &fakeStore{results: map[string][]*schema.RetrievedResult{
		"scholarships": many,
		"country_info": many,
	}}
	r := newTestRetriever(store)

	merged := r.Retrieve(context.Background(), "q", 3, []string{"scholarships", "country_info"}, nil)
	if len(merged) != 6 {
		t.Errorf("expected 2*n = 6 results, got %d", len(merged))
	}
}

func TestRetrieve_FailingCollectionDegrades(t *testing.T) {
	store := &fakeStore{
		results: map[string][]*schema.RetrievedResult{
			"country_info": {result("kept", 0.3)},
		},
		failing: map[string]bool{"scholarships": true},
	}
	r := newTestRetriever(store)

	merged := r.Retrieve(context.Background(), "q", 5, []string{"scholarships", "country_info"}, nil)
	if len(merged) != 1 || merged[0].Text != "kept" {
		t.Errorf("expected only the healthy collection's result, got %d results", len(merged))
	}
}

func TestRetrieveFrom_FailureReturnsEmpty(t *testing.T) {
	store := &fakeStore{failing: map[string]bool{"scholarships": true}}
	r := newTestRetriever(store)

	results := r.RetrieveFrom(context.Background(), "scholarships", "q", 10, nil)
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestDistanceScorer_EmptyResults(t *testing.T) {
	s := &DistanceScorer{MaxDistance: 2.0}
	if got := s.Score(nil); got != 0.0 {
		t.Errorf("Score(nil) = %v, expected 0.0", got)
	}
}

func TestDistanceScorer_KnownAverage(t *testing.T) {
	s := &DistanceScorer{MaxDistance: 2.0}
	results := []*schema.RetrievedResult{result("a", 0.1), result("b", 0.3)}
	if got := s.Score(results); got != 0.90 {
		t.Errorf("Score = %v, expected 0.90", got)
	}
}

func TestDistanceScorer_CloserIsMoreConfident(t *testing.T) {
	s := &DistanceScorer{MaxDistance: 2.0}
	near := []*schema.RetrievedResult{result("a", 0.2)}
	far := []*schema.RetrievedResult{result("a", 1.5)}
	if s.Score(near) <= s.Score(far) {
		t.Errorf("closer results should score higher: near=%v far=%v", s.Score(near), s.Score(far))
	}
}

func TestDistanceScorer_ClampedToUnitRange(t *testing.T) {
	s := &DistanceScorer{MaxDistance: 2.0}
	cases := [][]*schema.RetrievedResult{
		{result("a", 5.0)},
		{result("a", 0.0)},
		{resultNoDistance("a")},
	}
	for i, results := range cases {
		got := s.Score(results)
		if got < 0.0 || got > 1.0 {
			t.Errorf("case %d: Score = %v, outside [0,1]", i, got)
		}
	}
}

func TestDistanceScorer_MissingDistanceCountsAsOne(t *testing.T) {
	s := &DistanceScorer{MaxDistance: 2.0}
	if got := s.Score([]*schema.RetrievedResult{resultNoDistance("a")}); got != 0.50 {
		t.Errorf("Score = %v, expected 0.50", got)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil); got != "No relevant information found." {
		t.Errorf("BuildContext(nil) = %q", got)
	}
}

func TestBuildContext_NumbersAndAnnotatesChunks(t *testing.T) {
	results := []*schema.RetrievedResult{
		{
			Text: "DAAD offers scholarships.",
			Metadata: map[string]interface{}{
				schema.MetadataKeyType:   "scholarship_general",
				schema.MetadataKeySource: "scholarship_scraper",
			},
		},
		{Text: "Berlin is the capital.", Metadata: map[string]interface{}{}},
	}

	got := BuildContext(results)
	if !strings.Contains(got, "Document 1 (scholarship_general, source: scholarship_scraper):\nDAAD offers scholarships.") {
		t.Errorf("first block malformed:\n%s", got)
	}
	if !strings.Contains(got, "Document 2 (unknown, source: unknown):\nBerlin is the capital.") {
		t.Errorf("missing metadata should render as unknown:\n%s", got)
	}
}
