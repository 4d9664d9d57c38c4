package splitters

import (
	"strings"
	"testing"

	"StudyMate/internal/rag/schema"
)

func TestSplit_EmptyInput(t *testing.T) {
	s := NewCharacterSplitter(100, 20)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		docs := s.Split(text, nil)
		if len(docs) != 0 {
			t.Errorf("Split(%q) returned %d documents, expected 0", text, len(docs))
		}
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := NewCharacterSplitter(100, 20)
	text := "A short paragraph about scholarships."

	docs := s.Split(text, map[string]interface{}{schema.MetadataKeyCountry: "Germany"})
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.Text != text {
		t.Errorf("chunk text = %q, expected original text", doc.Text)
	}
	if doc.Metadata[schema.MetadataKeyChunkID] != 0 {
		t.Errorf("chunk_id = %v, expected 0", doc.Metadata[schema.MetadataKeyChunkID])
	}
	if doc.Metadata[schema.MetadataKeyTotalChunks] != 1 {
		t.Errorf("total_chunks = %v, expected 1", doc.Metadata[schema.MetadataKeyTotalChunks])
	}
	if doc.Metadata[schema.MetadataKeyChunkSize] != len(text) {
		t.Errorf("chunk_size = %v, expected %d", doc.Metadata[schema.MetadataKeyChunkSize], len(text))
	}
	if doc.Metadata[schema.MetadataKeyCountry] != "Germany" {
		t.Errorf("country metadata was not carried over")
	}
}

func TestSplit_ChunksStayWithinSize(t *testing.T) {
	s := NewCharacterSplitter(100, 20)
	text := strings.Repeat("word and more text here ", 60)

	docs := s.Split(text, nil)
	if len(docs) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(docs))
	}
	for i, doc := range docs {
		if len(doc.Text) > 100 {
			t.Errorf("chunk %d has %d characters, limit is 100", i, len(doc.Text))
		}
		if doc.Metadata[schema.MetadataKeyTotalChunks] != len(docs) {
			t.Errorf("chunk %d total_chunks = %v, expected %d", i, doc.Metadata[schema.MetadataKeyTotalChunks], len(docs))
		}
		if doc.Metadata[schema.MetadataKeyChunkID] != i {
			t.Errorf("chunk %d chunk_id = %v", i, doc.Metadata[schema.MetadataKeyChunkID])
		}
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	s := NewCharacterSplitter(100, 20)
	text := strings.Repeat("tuition fees living costs ", 40)

	docs := s.Split(text, nil)
	if len(docs) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		prev, cur := docs[i-1].Text, docs[i].Text
		if longestSuffixPrefix(prev, cur) == 0 {
			t.Errorf("chunks %d and %d share no overlap", i-1, i)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := NewCharacterSplitter(100, 20)
	para1 := strings.Repeat("a", 80)
	para2 := strings.Repeat("b", 80)
	text := para1 + "\n\n" + para2

	docs := s.Split(text, nil)
	if len(docs) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(docs))
	}
	if docs[0].Text != para1+"\n\n" {
		t.Errorf("first chunk = %q, expected first paragraph with separator", docs[0].Text)
	}
	if docs[1].Text != para2 {
		t.Errorf("second chunk = %q, expected second paragraph", docs[1].Text)
	}
}

func TestSplit_MetadataNotShared(t *testing.T) {
	s := NewCharacterSplitter(100, 20)
	source := map[string]interface{}{schema.MetadataKeyType: "city_info"}

	docs := s.Split(strings.Repeat("city center housing ", 30), source)
	if len(docs) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(docs))
	}

	docs[0].Metadata[schema.MetadataKeyType] = "mutated"
	if docs[1].Metadata[schema.MetadataKeyType] != "city_info" {
		t.Error("chunk metadata maps are shared between chunks")
	}
	if source[schema.MetadataKeyType] != "city_info" {
		t.Error("splitter mutated the caller's metadata map")
	}
}

func TestSplit_UnsplittableTextFallsBackToWindow(t *testing.T) {
	s := NewCharacterSplitter(50, 10)
	text := strings.Repeat("x", 130) // no separators at all

	docs := s.Split(text, nil)
	if len(docs) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(docs))
	}
	for i, doc := range docs {
		if len(doc.Text) > 50 {
			t.Errorf("chunk %d has %d characters, limit is 50", i, len(doc.Text))
		}
	}
}

// longestSuffixPrefix returns the length of the longest suffix of a that is
// also a prefix of b.
func longestSuffixPrefix(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}
