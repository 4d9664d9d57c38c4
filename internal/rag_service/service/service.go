package service

import (
	"context"
	"fmt"

	"StudyMate/internal/models"
	"StudyMate/internal/rag/generation"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/prompts"
	"StudyMate/internal/rag/retriever"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"
)

// Knowledge collection names.
const (
	CollectionScholarships = "scholarships"
	CollectionCountryInfo  = "country_info"
	CollectionUniversities = "universities"
	CollectionCities       = "cities"
)

const (
	// defaultScholarshipQuery drives the analysis when the caller gives no
	// scholarship to focus on.
	defaultScholarshipQuery = "scholarship requirements eligibility"
	defaultInfoType         = "general"

	scholarshipTopK = 10
	countryTopK     = 5
)

// RAGService is the orchestrator of the retrieval-augmented pipeline:
// retrieve, build context, assemble prompts, generate, assemble the result.
// Failures never escape as errors; every operation answers with a RAGResult,
// degrading to an apology with Error set when the request cannot be served.
type RAGService struct {
	store         interfaces.EmbeddingStore
	retriever     *retriever.Retriever
	prompts       *prompts.Builder
	generator     *generation.Client
	collections   []string
	perCollection int
	log           *logger.Logger
}

// New creates the orchestrator. collections and perCollection control the
// multi-collection chat retrieval; zero values fall back to the scholarship
// and country collections with 5 results each.
func New(
	store interfaces.EmbeddingStore,
	ret *retriever.Retriever,
	promptBuilder *prompts.Builder,
	generator *generation.Client,
	collections []string,
	perCollection int,
	log *logger.Logger,
) *RAGService {
	if len(collections) == 0 {
		collections = []string{CollectionScholarships, CollectionCountryInfo}
	}
	if perCollection <= 0 {
		perCollection = 5
	}
	return &RAGService{
		store:         store,
		retriever:     ret,
		prompts:       promptBuilder,
		generator:     generator,
		collections:   collections,
		perCollection: perCollection,
		log:           log,
	}
}

// GenerateResponse answers a free-form user query with retrieved context, the
// user's background and the bounded recent history.
func (s *RAGService) GenerateResponse(ctx context.Context, query string, background map[string]interface{}, history []schema.ConversationTurn) *schema.RAGResult {
	results := s.retriever.Retrieve(ctx, query, s.perCollection, s.collections, nil)
	contextBlock := retriever.BuildContext(results)

	systemPrompt, userPrompt := s.prompts.BuildChatPrompt(query, contextBlock, background, history)
	response, err := s.generator.Complete(ctx, userPrompt, systemPrompt)
	if s.requestFailed(ctx, err, "RAG response generation") {
		return s.errorResult(query, "I apologize, but I encountered an error while processing your request. Please try again.")
	}

	return &schema.RAGResult{
		Response:   response,
		Query:      query,
		Sources:    extractSources(results),
		Confidence: s.retriever.Confidence(results),
	}
}

// AnalyzeScholarshipFit assesses the user's background against retrieved
// scholarship requirements. An empty scholarshipQuery analyzes against general
// requirement and eligibility chunks.
func (s *RAGService) AnalyzeScholarshipFit(ctx context.Context, background map[string]interface{}, scholarshipQuery string) *schema.RAGResult {
	query := scholarshipQuery
	if query == "" {
		query = defaultScholarshipQuery
	}

	results := s.retriever.RetrieveFrom(ctx, CollectionScholarships, query, scholarshipTopK, nil)
	contextBlock := retriever.BuildContext(results)

	systemPrompt, userPrompt := s.prompts.BuildScholarshipAnalysisPrompt(background, contextBlock)
	response, err := s.generator.Complete(ctx, userPrompt, systemPrompt)
	if s.requestFailed(ctx, err, "scholarship fit analysis") {
		return s.errorResult(query, "I apologize, but I encountered an error while analyzing your eligibility. Please try again.")
	}

	return &schema.RAGResult{
		Response:   response,
		Query:      query,
		Sources:    extractSources(results),
		Confidence: s.retriever.Confidence(results),
	}
}

// GetCountryInformation answers a focused request about one country. infoType
// defaults to a general overview.
func (s *RAGService) GetCountryInformation(ctx context.Context, countryName, infoType string) *schema.RAGResult {
	if infoType == "" {
		infoType = defaultInfoType
	}
	query := fmt.Sprintf("%s %s", countryName, infoType)

	results := s.retriever.RetrieveFrom(ctx, CollectionCountryInfo, query, countryTopK, nil)
	contextBlock := retriever.BuildContext(results)

	systemPrompt, userPrompt := s.prompts.BuildCountryInfoPrompt(countryName, infoType, contextBlock)
	response, err := s.generator.Complete(ctx, userPrompt, systemPrompt)
	if s.requestFailed(ctx, err, "country information lookup") {
		return s.errorResult(query, fmt.Sprintf("I apologize, but I encountered an error while retrieving information about %s.", countryName))
	}

	return &schema.RAGResult{
		Response:   response,
		Query:      query,
		Sources:    extractSources(results),
		Confidence: s.retriever.Confidence(results),
	}
}

// CollectionStats reports the document count of a knowledge collection.
func (s *RAGService) CollectionStats(ctx context.Context, collection string) (*schema.CollectionStats, error) {
	return s.store.Stats(ctx, collection)
}

// ClearCollection drops all documents of a knowledge collection.
func (s *RAGService) ClearCollection(ctx context.Context, collection string) error {
	return s.store.Clear(ctx, collection)
}

// requestFailed decides whether a generation error is fatal for the request.
// Degraded provider output keeps flowing as a normal answer; only a dead
// request context turns into the error envelope.
func (s *RAGService) requestFailed(ctx context.Context, err error, operation string) bool {
	if err == nil {
		return false
	}
	s.log.WithError(models.ErrorInfo{Type: "generation_error", Message: err.Error()}).
		Warn(fmt.Sprintf("%s degraded", operation))
	return ctx.Err() != nil
}

func (s *RAGService) errorResult(query, apology string) *schema.RAGResult {
	return &schema.RAGResult{
		Response: apology,
		Query:    query,
		Sources:  []schema.SourceDescriptor{},
		Error:    true,
	}
}

// extractSources redacts retrieved chunks down to their provenance metadata.
// Chunk text itself never leaves the service.
func extractSources(results []*schema.RetrievedResult) []schema.SourceDescriptor {
	sources := make([]schema.SourceDescriptor, 0, len(results))
	for _, res := range results {
		sources = append(sources, schema.SourceDescriptor{
			Type:        metaOr(res.Metadata, schema.MetadataKeyType, "unknown"),
			Source:      metaOr(res.Metadata, schema.MetadataKeySource, "unknown"),
			Country:     metaOr(res.Metadata, schema.MetadataKeyCountry, "unknown"),
			Category:    metaOr(res.Metadata, schema.MetadataKeyCategory, "unknown"),
			University:  metaOr(res.Metadata, schema.MetadataKeyUniversity, ""),
			City:        metaOr(res.Metadata, schema.MetadataKeyCity, ""),
			ProgramName: metaOr(res.Metadata, schema.MetadataKeyProgramName, ""),
		})
	}
	return sources
}

func metaOr(metadata map[string]interface{}, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
