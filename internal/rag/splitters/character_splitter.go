package splitters

import (
	"strings"

	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/schema"
)

// DefaultSeparators is the preference-ordered separator list used for scraped
// prose: paragraphs first, then lines, sentence-ending punctuation, words and
// finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// CharacterSplitter implements the Splitter interface by recursively splitting
// text on a preference-ordered list of separators. No produced chunk exceeds
// ChunkSize unless a single unsplittable unit is longer than the limit, and
// consecutive chunks share up to ChunkOverlap characters of trailing context.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewCharacterSplitter creates a CharacterSplitter with the default separator
// list. The overlap must be smaller than the chunk size.
func NewCharacterSplitter(chunkSize, chunkOverlap int) *CharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split splits text into overlapping chunks and attaches positional metadata to
// each one. Empty or whitespace-only input yields an empty slice, not an error.
func (s *CharacterSplitter) Split(text string, metadata map[string]interface{}) []*schema.Document {
	if strings.TrimSpace(text) == "" {
		return []*schema.Document{}
	}

	pieces := s.splitText(text, s.Separators)

	docs := make([]*schema.Document, 0, len(pieces))
	for i, piece := range pieces {
		md := copyMetadata(metadata)
		md[schema.MetadataKeyChunkID] = i
		md[schema.MetadataKeyTotalChunks] = len(pieces)
		md[schema.MetadataKeyChunkSize] = len(piece)

		docs = append(docs, &schema.Document{
			Text:     piece,
			Metadata: md,
		})
	}
	return docs
}

// splitText recursively splits text with the first applicable separator and
// merges the resulting fragments back into chunks of at most ChunkSize.
func (s *CharacterSplitter) splitText(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	sep, remaining := pickSeparator(text, separators)
	if sep == "" {
		return s.windowChars(text)
	}

	fragments := splitKeepSeparator(text, sep)

	// Fragments that still exceed the limit are split again with the
	// lower-priority separators before merging.
	var units []string
	for _, frag := range fragments {
		if len(frag) > s.ChunkSize && len(remaining) > 0 {
			units = append(units, s.splitText(frag, remaining)...)
		} else {
			units = append(units, frag)
		}
	}

	return s.mergeUnits(units)
}

// mergeUnits greedily packs consecutive units into chunks of at most ChunkSize,
// carrying trailing units of up to ChunkOverlap characters into the next chunk.
// A single unit longer than ChunkSize is kept intact.
func (s *CharacterSplitter) mergeUnits(units []string) []string {
	var chunks []string
	var current []string
	curLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, ""))
		// Retain a trailing window as overlap for the next chunk.
		keep := len(current)
		kept := 0
		for keep > 0 && kept+len(current[keep-1]) <= s.ChunkOverlap {
			kept += len(current[keep-1])
			keep--
		}
		current = append([]string(nil), current[keep:]...)
		curLen = kept
	}

	for _, unit := range units {
		if curLen+len(unit) > s.ChunkSize && curLen > 0 {
			flush()
			// The overlap itself may leave no room for a large unit.
			for curLen > 0 && curLen+len(unit) > s.ChunkSize {
				curLen -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, unit)
		curLen += len(unit)
	}
	if curLen > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

// windowChars is the last-resort character-level split with a fixed stride.
func (s *CharacterSplitter) windowChars(text string) []string {
	step := s.ChunkSize - s.ChunkOverlap
	if step <= 0 {
		step = s.ChunkSize
	}
	var chunks []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// pickSeparator returns the first separator present in the text and the list of
// lower-priority separators after it. The empty string always matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeepSeparator splits text by sep, re-attaching the separator to the
// preceding fragment so that chunk concatenation covers the original text.
func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	fragments := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part != "" {
			fragments = append(fragments, part)
		}
	}
	return fragments
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	newMd := make(map[string]interface{}, len(md)+3)
	for k, v := range md {
		newMd[k] = v
	}
	return newMd
}

// compile-time check to ensure CharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharacterSplitter)(nil)
