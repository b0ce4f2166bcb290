package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
	"foxo/pkg/logger"
)

const (
	FieldID          = "id"
	FieldChunk       = "chunk"
	FieldSource      = "source"
	FieldPage        = "page"
	FieldStartOffset = "start_offset"
	FieldEmbedding   = "embedding"

	maxChunkLength  = 65535
	maxSourceLength = 512
	maxIDLength     = 64

	// pageNone is stored when a chunk has no page number (non-PDF sources).
	pageNone = int64(-1)

	ivfNlist   = 128
	ivfNprobe  = 10
	searchExpr = ""
)

// ErrCollectionNotFound is returned by Load when the collection has not been
// built yet. Callers should run a full ingestion before querying.
var ErrCollectionNotFound = errors.New("vector collection not found")

// MilvusStore persists document chunks and their embeddings in a Milvus
// collection. Rebuild drops and recreates the collection, so the store always
// reflects exactly one ingestion run.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	collection string
}

// NewMilvusStore connects to Milvus at the given address.
func NewMilvusStore(ctx context.Context, address, collectionName string, log *logger.Logger) (*MilvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus at %s: %w", address, err)
	}
	return &MilvusStore{
		log:        log,
		client:     c,
		collection: collectionName,
	}, nil
}

// Close releases the underlying Milvus connection.
func (s *MilvusStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Rebuild replaces the collection contents with the given documents. Any
// existing collection is dropped first, then a fresh one is created, indexed,
// filled and loaded into memory.
func (s *MilvusStore) Rebuild(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("cannot rebuild collection %q from zero documents", s.collection)
	}

	dim := len(docs[0].Embedding)
	if dim == 0 {
		return fmt.Errorf("documents have no embeddings, cannot rebuild collection %q", s.collection)
	}

	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if exists {
		s.log.Info(fmt.Sprintf("Dropping existing collection '%s' before rebuild", s.collection))
		if err := s.client.DropCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to drop collection %q: %w", s.collection, err)
		}
	}

	if err := s.createCollection(ctx, dim); err != nil {
		return err
	}

	if err := s.insert(ctx, docs, dim); err != nil {
		return err
	}

	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to flush collection %q: %w", s.collection, err)
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %q: %w", s.collection, err)
	}

	s.log.WithPayload(map[string]interface{}{
		"collection": s.collection,
		"documents":  len(docs),
		"dim":        dim,
	}).Info("Vector collection rebuilt")
	return nil
}

// Load makes an existing collection queryable without re-ingesting. It fails
// with ErrCollectionNotFound when the collection does not exist yet.
func (s *MilvusStore) Load(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if !exists {
		return fmt.Errorf("collection %q: %w", s.collection, ErrCollectionNotFound)
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %q: %w", s.collection, err)
	}
	return nil
}

// Search returns the topK documents nearest to the query embedding, best
// match first.
func (s *MilvusStore) Search(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(ivfNprobe)
	outputFields := []string{FieldID, FieldChunk, FieldSource, FieldPage, FieldStartOffset}

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, searchExpr, outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.L2, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %q: %w", s.collection, err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing the id field, skipping")
			continue
		}
		chunkCol, ok := findColumn(FieldChunk).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing the chunk field, skipping")
			continue
		}
		ids := idCol.Data()
		chunks := chunkCol.Data()

		var sources []string
		if col, ok := findColumn(FieldSource).(*entity.ColumnVarChar); ok {
			sources = col.Data()
		}
		var pages, offsets []int64
		if col, ok := findColumn(FieldPage).(*entity.ColumnInt64); ok {
			pages = col.Data()
		}
		if col, ok := findColumn(FieldStartOffset).(*entity.ColumnInt64); ok {
			offsets = col.Data()
		}

		for i := 0; i < res.ResultCount; i++ {
			doc := &schema.Document{
				ID:   ids[i],
				Text: chunks[i],
				Metadata: map[string]interface{}{
					schema.MetadataKeyScore: res.Scores[i],
				},
			}
			if sources != nil {
				doc.Metadata[schema.MetadataKeySource] = sources[i]
			}
			if pages != nil && pages[i] != pageNone {
				doc.Metadata[schema.MetadataKeyPage] = int(pages[i])
			}
			if offsets != nil {
				doc.Metadata[schema.MetadataKeyStartOffset] = int(offsets[i])
			}
			results = append(results, doc)
		}
	}

	return results, nil
}

// Count reports how many chunks the collection currently holds.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if !exists {
		return 0, nil
	}

	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return 0, fmt.Errorf("failed to flush collection %q: %w", s.collection, err)
	}

	stats, err := s.client.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get statistics for collection %q: %w", s.collection, err)
	}
	raw, ok := stats["row_count"]
	if !ok {
		return 0, fmt.Errorf("collection %q statistics have no row_count", s.collection)
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row_count %q for collection %q: %w", raw, s.collection, err)
	}
	return count, nil
}

func (s *MilvusStore) createCollection(ctx context.Context, dim int) error {
	collSchema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("Document chunks and embeddings for retrieval").
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxIDLength).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldChunk).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxChunkLength)).
		WithField(entity.NewField().
			WithName(FieldSource).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxSourceLength)).
		WithField(entity.NewField().
			WithName(FieldPage).
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName(FieldStartOffset).
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName(FieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim)))

	if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, ivfNlist)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	if err := s.client.CreateIndex(ctx, s.collection, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index on %q: %w", s.collection, err)
	}
	return nil
}

func (s *MilvusStore) insert(ctx context.Context, docs []*schema.Document, dim int) error {
	ids := make([]string, len(docs))
	chunks := make([]string, len(docs))
	sources := make([]string, len(docs))
	pages := make([]int64, len(docs))
	offsets := make([]int64, len(docs))
	embeddings := make([][]float32, len(docs))

	for i, doc := range docs {
		if len(doc.Embedding) != dim {
			return fmt.Errorf("document %s has embedding dim %d, expected %d", doc.ID, len(doc.Embedding), dim)
		}
		ids[i] = doc.ID
		chunks[i] = doc.Text
		sources[i] = doc.Source()
		pages[i] = pageNone
		if page, ok := doc.Page(); ok {
			pages[i] = int64(page)
		}
		if off, ok := doc.Metadata[schema.MetadataKeyStartOffset].(int); ok {
			offsets[i] = int64(off)
		}
		embeddings[i] = doc.Embedding
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldChunk, chunks),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnInt64(FieldPage, pages),
		entity.NewColumnInt64(FieldStartOffset, offsets),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into collection %q: %w", s.collection, err)
	}
	return nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
