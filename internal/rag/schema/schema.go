package schema

import "time"

const (
	// MetadataKeyType is the key for the document kind (e.g. "scholarship_program", "city_info").
	MetadataKeyType = "type"
	// MetadataKeySource is the key for the provenance of the document (e.g. "scholarship_scraper", "wikipedia").
	MetadataKeySource = "source"
	// MetadataKeyCountry is the key for the country a document is about.
	MetadataKeyCountry = "country"
	// MetadataKeyCategory is the key for the topical category within a collection.
	MetadataKeyCategory = "category"
	// MetadataKeyUniversity is the key for the university name, when applicable.
	MetadataKeyUniversity = "university"
	// MetadataKeyCity is the key for the city name, when applicable.
	MetadataKeyCity = "city"
	// MetadataKeyProgramName is the key for the scholarship program name, when applicable.
	MetadataKeyProgramName = "program_name"
	// MetadataKeyProgramLevel is the key for the degree level of a program.
	MetadataKeyProgramLevel = "program_level"
	// MetadataKeyChunkID is the 0-based position of a chunk within its parent document.
	MetadataKeyChunkID = "chunk_id"
	// MetadataKeyTotalChunks is the number of chunks the parent document was split into.
	MetadataKeyTotalChunks = "total_chunks"
	// MetadataKeyChunkSize is the character length of the chunk text.
	MetadataKeyChunkSize = "chunk_size"
)

// Document is the central data structure representing a piece of text and its associated data.
// It is the primary data carrier throughout the RAG pipeline. A Document is immutable once
// produced by the splitter; only the store assigns its ID.
type Document struct {
	// ID is the unique identifier for this document chunk within a collection.
	ID string

	// Text is the string content of the document chunk.
	Text string

	// Embedding is the vector representation of the text.
	Embedding []float32

	// Metadata holds arbitrary data about the document, such as type, source and country.
	Metadata map[string]interface{}
}

// RetrievedResult is a single similarity-search hit.
type RetrievedResult struct {
	Text     string
	Metadata map[string]interface{}

	// Distance is the similarity-space distance to the query (lower is more similar).
	// It is nil when the backing index does not report one.
	Distance *float64
}

// CollectionStats describes the administrative state of a collection.
type CollectionStats struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  int64  `json:"document_count"`
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single message of the bounded recent history window.
// The relational store owns these; the RAG core only reads them.
type ConversationTurn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// SourceDescriptor is the redacted view of a retrieved chunk's metadata that is
// returned to callers. Raw chunk text never leaves the service.
type SourceDescriptor struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Country     string `json:"country"`
	Category    string `json:"category"`
	University  string `json:"university,omitempty"`
	City        string `json:"city,omitempty"`
	ProgramName string `json:"program_name,omitempty"`
}

// RAGResult is the structured answer assembled by the orchestrator.
type RAGResult struct {
	Response   string             `json:"response"`
	Query      string             `json:"query"`
	Sources    []SourceDescriptor `json:"sources"`
	Confidence float64            `json:"confidence"`
	Error      bool               `json:"error"`
}
