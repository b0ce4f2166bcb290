package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"foxo/internal/rag/loaders"
	"foxo/internal/rag/splitters"
	"foxo/internal/rag/storages/vectorstore"
	"foxo/pkg/logger"
)

func TestIndexingPipeline_RoundTrip(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test", "")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	splitter, err := splitters.NewRecursiveCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewRecursiveCharacterSplitter() error = %v", err)
	}
	embedder := &fakeEmbedder{
		dim:     2,
		vectors: map[string][]float32{"hello world": {1, 0}},
	}
	store := vectorstore.NewMemoryStore()

	indexing := NewIndexingPipeline(loaders.NewDirectoryLoader(log), splitter, embedder, store, log)
	stats, err := indexing.Run(ctx, dir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FilesFound != 1 || stats.FilesLoaded != 1 {
		t.Errorf("expected 1 file found and loaded, got %d/%d", stats.FilesFound, stats.FilesLoaded)
	}
	if stats.ChunksCreated != 1 {
		t.Errorf("expected 1 chunk, got %d", stats.ChunksCreated)
	}
	if stats.ItemsIndexed != 1 {
		t.Errorf("expected 1 indexed item, got %d", stats.ItemsIndexed)
	}

	// The indexed chunk must come back out through retrieval.
	retriever := NewRetrievalPipeline(embedder, store, 3, log)
	docs, err := retriever.Run(ctx, "hello world")
	if err != nil {
		t.Fatalf("retrieval failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 retrieved chunk, got %d", len(docs))
	}
	if docs[0].Text != "hello world" {
		t.Errorf("unexpected retrieved text: %q", docs[0].Text)
	}
	if got := docs[0].Source(); got != "greeting.txt" {
		t.Errorf("expected source greeting.txt, got %q", got)
	}
}

func TestIndexingPipeline_EmptyFolderFails(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test", "")

	splitter, err := splitters.NewRecursiveCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewRecursiveCharacterSplitter() error = %v", err)
	}
	embedder := &fakeEmbedder{dim: 2}
	store := vectorstore.NewMemoryStore()

	indexing := NewIndexingPipeline(loaders.NewDirectoryLoader(log), splitter, embedder, store, log)
	if _, err := indexing.Run(ctx, t.TempDir()); err == nil {
		t.Fatal("expected error for folder without loadable documents")
	}

	// A failed run must not make the store loadable.
	if err := store.Load(ctx); err == nil {
		t.Error("expected store to remain unbuilt after failed ingestion")
	}
}
