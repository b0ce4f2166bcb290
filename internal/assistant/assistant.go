package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"foxo/internal/agent"
	"foxo/internal/config"
	"foxo/internal/llm"
	"foxo/internal/rag/embeddings"
	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/loaders"
	"foxo/internal/rag/pipeline"
	"foxo/internal/rag/splitters"
	"foxo/internal/rag/storages/vectorstore"
	"foxo/pkg/logger"
)

// Assistant wires the ingestion pipeline and the tool-routing agent over a
// shared vector store. All dependencies are built once at construction and
// passed down explicitly.
type Assistant struct {
	cfg *config.AppConfig
	log *logger.Logger

	store    interfaces.VectorStore
	indexing *pipeline.IndexingPipeline
	router   *agent.Router

	// mu serializes ingestion against queries: Ingest rebuilds the store,
	// so no Ask may observe a half-built index.
	mu     sync.RWMutex
	loadMu sync.Mutex
	loaded atomic.Bool
}

// New builds a fully wired Assistant from configuration.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*Assistant, error) {
	embedder, err := embeddings.New(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	store, err := vectorstore.NewMilvusStore(ctx, cfg.Databases.Milvus.Address, cfg.Databases.Milvus.Collection, log)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	chatModel, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}

	return NewWithDeps(cfg, embedder, store, chatModel, log)
}

// NewWithDeps builds an Assistant over explicit dependencies. Tests use it to
// substitute fakes for the external services.
func NewWithDeps(
	cfg *config.AppConfig,
	embedder interfaces.EmbeddingModel,
	store interfaces.VectorStore,
	chatModel llm.ChatModel,
	log *logger.Logger,
) (*Assistant, error) {
	splitter, err := splitters.NewRecursiveCharacterSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating splitter: %w", err)
	}

	loader := loaders.NewDirectoryLoader(log)
	indexing := pipeline.NewIndexingPipeline(loader, splitter, embedder, store, log)

	retriever := pipeline.NewRetrievalPipeline(embedder, store, cfg.Agent.RetrievalTopK, log)
	qa := pipeline.NewQAPipeline(retriever, chatModel, log)

	calc := &agent.Calculator{}
	searcher := agent.NewWebSearcher(cfg.Search.Tavily.APIKey, cfg.Search.Tavily.MaxResults, log)
	toolset := agent.NewToolset(qa, calc, searcher, log)
	router := agent.NewRouter(chatModel, toolset, cfg.Agent.MaxAutoReplies, log)

	return &Assistant{
		cfg:      cfg,
		log:      log,
		store:    store,
		indexing: indexing,
		router:   router,
	}, nil
}

// Ingest runs a full ingestion of the configured data folder, replacing the
// current index. Queries block until the rebuild finishes.
func (a *Assistant) Ingest(ctx context.Context) (*pipeline.IndexStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := a.indexing.Run(ctx, a.cfg.Ingest.DataDir)
	if err != nil {
		return stats, err
	}
	a.loaded.Store(true)
	return stats, nil
}

// Reingest re-runs a full ingestion, discarding the stats. It backs the
// folder watcher.
func (a *Assistant) Reingest(ctx context.Context) error {
	_, err := a.Ingest(ctx)
	return err
}

// Ask answers a question through the tool-routing agent.
func (a *Assistant) Ask(ctx context.Context, question string) (*agent.Reply, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.ensureLoaded(ctx); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return nil, err
	}
	return a.router.Ask(ctx, question)
}

// Status reports whether an index is available and how many chunks it holds.
type Status struct {
	Ready        bool  `json:"ready"`
	IndexedItems int64 `json:"indexed_items"`
}

// Status reports the current index state.
func (a *Assistant) Status(ctx context.Context) (*Status, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	count, err := a.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Ready: count > 0, IndexedItems: count}, nil
}

// ensureLoaded makes an existing collection queryable on first use. A missing
// collection is not fatal here: the knowledge base tool reports it per query.
func (a *Assistant) ensureLoaded(ctx context.Context) error {
	if a.loaded.Load() {
		return nil
	}
	a.loadMu.Lock()
	defer a.loadMu.Unlock()
	if a.loaded.Load() {
		return nil
	}
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	a.loaded.Store(true)
	return nil
}
