package interfaces

import (
	"context"

	"foxo/internal/rag/schema"
)

// Loader is the interface for reading one source file and converting it into
// a list of Document units.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting a list of Documents into smaller
// chunks suitable for embedding and retrieval.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// EmbeddingModel is the interface for a text embedding model. Embed returns
// one vector per input text, order-preserving.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the interface for the persistent collection of chunk
// vectors backing retrieval.
type VectorStore interface {
	// Rebuild deletes any existing collection (no-op if absent) and inserts
	// the given, already-embedded chunks as a fresh collection. Any failure
	// is reported; a partially written collection is never declared
	// authoritative.
	Rebuild(ctx context.Context, docs []*schema.Document) error

	// Load opens the existing collection for querying without modifying it.
	// Returns vectorstore.ErrCollectionNotFound when it was never built.
	Load(ctx context.Context) error

	// Search returns up to topK chunks, nearest first.
	Search(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error)

	// Count reports the number of entries in the collection.
	Count(ctx context.Context) (int64, error)
}

// LLM is the interface for a generative model answering a single prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
