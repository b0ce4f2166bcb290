package pipeline

import (
	"context"
	"fmt"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
	"foxo/pkg/logger"
)

// RetrievalPipeline finds the document chunks most relevant to a query.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	topK        int
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	topK int,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		log:         log,
	}
}

// Run embeds the query and returns up to topK nearest chunks, best first.
// An empty result is not an error.
func (p *RetrievalPipeline) Run(ctx context.Context, query string) ([]*schema.Document, error) {
	embeddings, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		p.log.WithError(err).Error("Failed to embed query")
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	docs, err := p.vectorStore.Search(ctx, embeddings[0], p.topK)
	if err != nil {
		p.log.WithError(err).Error("Failed to search vector store")
		return nil, fmt.Errorf("searching vector store: %w", err)
	}

	p.log.Debug(fmt.Sprintf("Retrieved %d chunks for query", len(docs)))
	return docs, nil
}
