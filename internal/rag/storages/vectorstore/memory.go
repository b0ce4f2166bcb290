package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
)

// MemoryStore keeps chunks and embeddings in process memory. It backs tests
// and small single-process deployments where running Milvus is not worth it.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  []*schema.Document
	built bool
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Rebuild(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("cannot rebuild in-memory store from zero documents")
	}
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make([]*schema.Document, len(docs))
	copy(s.docs, docs)
	s.built = true
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.built {
		return ErrCollectionNotFound
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   *schema.Document
		score float64
	}
	candidates := make([]scored, 0, len(s.docs))
	for _, doc := range s.docs {
		sim, err := cosineSimilarity(embedding, doc.Embedding)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, scored{doc: doc, score: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]*schema.Document, 0, topK)
	for _, c := range candidates[:topK] {
		doc := &schema.Document{
			ID:       c.doc.ID,
			Text:     c.doc.Text,
			Metadata: make(map[string]interface{}, len(c.doc.Metadata)+1),
		}
		for k, v := range c.doc.Metadata {
			doc.Metadata[k] = v
		}
		doc.Metadata[schema.MetadataKeyScore] = float32(c.score)
		results = append(results, doc)
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dim mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
