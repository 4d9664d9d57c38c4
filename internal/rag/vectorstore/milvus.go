package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"StudyMate/internal/database/milvus"
	"StudyMate/internal/embedding"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// Schema fields of the knowledge collections.
	FieldID        = "id"
	FieldText      = "text"
	FieldMetadata  = "metadata"
	FieldDocType   = "doc_type"
	FieldCountry   = "country"
	FieldCategory  = "category"
	FieldSource    = "source"
	FieldEmbedding = "embedding"

	maxTextLength = 8192
	maxMetaLength = 4096
	maxTagLength  = 256
)

// filterableFields maps metadata filter keys to the varchar columns that can be
// pushed down into a Milvus filter expression. Filters on any other key are
// applied client-side after the search.
var filterableFields = map[string]string{
	schema.MetadataKeyType:     FieldDocType,
	schema.MetadataKeyCountry:  FieldCountry,
	schema.MetadataKeyCategory: FieldCategory,
	schema.MetadataKeySource:   FieldSource,
}

// MilvusStore is the production EmbeddingStore backend. Every knowledge
// collection maps to a Milvus collection with the same name, created on first
// write with an IVF_FLAT index over L2 distance.
type MilvusStore struct {
	log      *logger.Logger
	client   client.Client
	embedder embedding.Embedding
	dim      int
}

// NewMilvusStore creates a store on top of the project's Milvus client wrapper.
func NewMilvusStore(milvusClient *milvus.MilvusClient, embedder embedding.Embedding, dimension int, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	return &MilvusStore{
		log:      log,
		client:   milvusClient.Client,
		embedder: embedder,
		dim:      dimension,
	}, nil
}

// Store embeds the chunks and writes them into the named collection, creating
// the collection on first use. IDs follow the "{collection}_{i}" convention,
// and rows with colliding IDs are replaced rather than duplicated.
func (s *MilvusStore) Store(ctx context.Context, collection string, docs []*schema.Document) error {
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

	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	ids := make([]string, len(docs))
	metadatas := make([]string, len(docs))
	docTypes := make([]string, len(docs))
	countries := make([]string, len(docs))
	categories := make([]string, len(docs))
	sources := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = fmt.Sprintf("%s_%d", collection, i)
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for document %s: %w", ids[i], err)
		}
		metadatas[i] = string(meta)
		docTypes[i] = metaString(doc.Metadata, schema.MetadataKeyType)
		countries[i] = metaString(doc.Metadata, schema.MetadataKeyCountry)
		categories[i] = metaString(doc.Metadata, schema.MetadataKeyCategory)
		sources[i] = metaString(doc.Metadata, schema.MetadataKeySource)
	}

	// Remove any rows these IDs would collide with, then insert fresh rows.
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	expr := fmt.Sprintf("%s in [%s]", FieldID, strings.Join(quoted, ", "))
	if err := s.client.Delete(ctx, collection, "", expr); err != nil {
		return fmt.Errorf("failed to replace existing documents in '%s': %w", collection, err)
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	textCol := entity.NewColumnVarChar(FieldText, texts)
	metaCol := entity.NewColumnVarChar(FieldMetadata, metadatas)
	docTypeCol := entity.NewColumnVarChar(FieldDocType, docTypes)
	countryCol := entity.NewColumnVarChar(FieldCountry, countries)
	categoryCol := entity.NewColumnVarChar(FieldCategory, categories)
	sourceCol := entity.NewColumnVarChar(FieldSource, sources)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, s.dim, vectors)

	_, err = s.client.Insert(ctx, collection, "", idCol, textCol, metaCol, docTypeCol, countryCol, categoryCol, sourceCol, embeddingCol)
	if err != nil {
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}
	if err := s.client.Flush(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collection, err)
	}

	s.log.Info(fmt.Sprintf("stored %d documents in collection '%s'", len(docs), collection))
	return nil
}

// Search embeds the query and runs an ANN search ordered by ascending L2
// distance. Filter keys backed by a varchar column become part of the Milvus
// filter expression; the rest are checked against the decoded metadata.
func (s *MilvusStore) Search(ctx context.Context, collection, query string, topK int, filter map[string]string) ([]*schema.RetrievedResult, error) {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection '%s': %w", collection, err)
	}
	if !exists {
		return []*schema.RetrievedResult{}, nil
	}
	if err := s.client.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("failed to load collection '%s': %w", collection, err)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filterExpr, residual := buildFilterExpression(filter)
	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldText, FieldMetadata}

	searchResults, err := s.client.Search(
		ctx, collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(queryVec)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var results []*schema.RetrievedResult
	for _, res := range searchResults {
		var textData, metaData []string
		for _, field := range res.Fields {
			col, ok := field.(*entity.ColumnVarChar)
			if !ok {
				continue
			}
			switch col.Name() {
			case FieldText:
				textData = col.Data()
			case FieldMetadata:
				metaData = col.Data()
			}
		}
		if textData == nil {
			s.log.Warn("search result is missing the text field, skipping")
			continue
		}

		for i := 0; i < res.ResultCount; i++ {
			metadata := map[string]interface{}{}
			if metaData != nil {
				if err := json.Unmarshal([]byte(metaData[i]), &metadata); err != nil {
					s.log.Warn(fmt.Sprintf("failed to decode metadata of a search result: %v", err))
				}
			}
			if !metadataMatches(metadata, residual) {
				continue
			}
			d := float64(res.Scores[i])
			results = append(results, &schema.RetrievedResult{
				Text:     textData[i],
				Metadata: metadata,
				Distance: &d,
			})
		}
	}
	if results == nil {
		results = []*schema.RetrievedResult{}
	}
	return results, nil
}

// Stats reports the row count of a collection. A missing collection counts as
// empty.
func (s *MilvusStore) Stats(ctx context.Context, collection string) (*schema.CollectionStats, error) {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection '%s': %w", collection, err)
	}
	stats := &schema.CollectionStats{CollectionName: collection}
	if !exists {
		return stats, nil
	}

	raw, err := s.client.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics of collection '%s': %w", collection, err)
	}
	if count, ok := raw["row_count"]; ok {
		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected row_count '%s' for collection '%s': %w", count, collection, err)
		}
		stats.DocumentCount = n
	}
	return stats, nil
}

// Clear drops the collection. It will be recreated on the next Store call.
// Clearing a missing collection is a no-op.
func (s *MilvusStore) Clear(ctx context.Context, collection string) error {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", collection, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DropCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to drop collection '%s': %w", collection, err)
	}
	s.log.Info(fmt.Sprintf("cleared collection '%s'", collection))
	return nil
}

// ensureCollection creates the collection and its index on first use, then
// loads it into memory.
func (s *MilvusStore) ensureCollection(ctx context.Context, collection string) error {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", collection, err)
	}
	if !exists {
		collSchema := entity.NewSchema().
			WithName(collection).
			WithDescription("study abroad knowledge chunks").
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTagLength).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTextLength)).
			WithField(entity.NewField().WithName(FieldMetadata).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxMetaLength)).
			WithField(entity.NewField().WithName(FieldDocType).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTagLength)).
			WithField(entity.NewField().WithName(FieldCountry).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTagLength)).
			WithField(entity.NewField().WithName(FieldCategory).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTagLength)).
			WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTagLength)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", collection, err)
		}
		idx, err := entity.NewIndexIvfFlat(entity.L2, 128)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := s.client.CreateIndex(ctx, collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on collection '%s': %w", collection, err)
		}
	}

	if err := s.client.LoadCollection(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", collection, err)
	}
	return nil
}

// buildFilterExpression turns the pushable part of a filter into a Milvus
// expression and returns the remainder for client-side matching.
func buildFilterExpression(filter map[string]string) (string, map[string]string) {
	if len(filter) == 0 {
		return "", nil
	}
	var conditions []string
	residual := make(map[string]string)
	for key, value := range filter {
		if column, ok := filterableFields[key]; ok {
			conditions = append(conditions, fmt.Sprintf(`%s == %q`, column, value))
		} else {
			residual[key] = value
		}
	}
	return strings.Join(conditions, " and "), residual
}

func metaString(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

// compile-time check to ensure MilvusStore implements the EmbeddingStore interface
var _ interfaces.EmbeddingStore = (*MilvusStore)(nil)
