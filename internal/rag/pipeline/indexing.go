package pipeline

import (
	"context"
	"fmt"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/loaders"
	"foxo/pkg/logger"
)

// IndexStats summarizes one ingestion run.
type IndexStats struct {
	FilesFound    int                   `json:"files_found"`
	FilesLoaded   int                   `json:"files_loaded"`
	ChunksCreated int                   `json:"chunks_created"`
	ItemsIndexed  int64                 `json:"items_indexed"`
	Skipped       []loaders.SkippedFile `json:"skipped,omitempty"`
}

// IndexingPipeline orchestrates loading, splitting, embedding, and storing
// documents from a folder.
type IndexingPipeline struct {
	loader      *loaders.DirectoryLoader
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	loader *loaders.DirectoryLoader,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		loader:      loader,
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run executes a full ingestion for the given folder. Earlier index contents
// are replaced only when the run reaches the final store rebuild, so a failed
// run never leaves the index half written.
func (p *IndexingPipeline) Run(ctx context.Context, folder string) (*IndexStats, error) {
	p.log.Info(fmt.Sprintf("Starting indexing for folder: %s", folder))

	docs, report, err := p.loader.LoadAll(ctx, folder)
	if err != nil {
		p.log.WithError(err).Error("Failed to load documents")
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	stats := &IndexStats{
		FilesFound:  report.FilesFound,
		FilesLoaded: report.FilesLoaded,
		Skipped:     report.Skipped,
	}
	if len(docs) == 0 {
		return stats, fmt.Errorf("no loadable documents found in %s", folder)
	}

	chunks, err := p.splitter.Split(ctx, docs)
	if err != nil {
		p.log.WithError(err).Error("Failed to split documents")
		return stats, fmt.Errorf("splitting documents: %w", err)
	}
	stats.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		return stats, fmt.Errorf("splitting produced no chunks for %s", folder)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		p.log.WithError(err).Error("Failed to embed chunks")
		return stats, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return stats, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
	}

	if err := p.vectorStore.Rebuild(ctx, chunks); err != nil {
		p.log.WithError(err).Error("Failed to rebuild vector store")
		return stats, fmt.Errorf("rebuilding vector store: %w", err)
	}

	count, err := p.vectorStore.Count(ctx)
	if err != nil {
		p.log.WithError(err).Warn("Failed to count indexed items")
		count = int64(len(chunks))
	}
	stats.ItemsIndexed = count

	p.log.WithPayload(map[string]interface{}{
		"files_found":  stats.FilesFound,
		"files_loaded": stats.FilesLoaded,
		"chunks":       stats.ChunksCreated,
		"indexed":      stats.ItemsIndexed,
	}).Info("Indexing complete")
	return stats, nil
}
