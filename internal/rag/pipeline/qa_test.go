package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"foxo/internal/rag/schema"
	"foxo/internal/rag/storages/vectorstore"
	"foxo/pkg/logger"
)

// fakeEmbedder returns canned vectors by exact text, falling back to a
// zero-adjacent default so unknown texts never match anything strongly.
type fakeEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
			continue
		}
		vec := make([]float32, f.dim)
		vec[f.dim-1] = 0.001
		out[i] = vec
	}
	return out, nil
}

// fakeLLM records the prompt it received and returns a fixed answer.
type fakeLLM struct {
	prompt string
	answer string
	err    error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); got != NoContextSentinel {
		t.Errorf("expected sentinel %q, got %q", NoContextSentinel, got)
	}
}

func TestFormatContext_HeadersAndSeparators(t *testing.T) {
	docs := []*schema.Document{
		{
			Text: "first chunk",
			Metadata: map[string]interface{}{
				schema.MetadataKeySource: "manual.pdf",
				schema.MetadataKeyPage:   2,
			},
		},
		{
			Text: "second chunk",
			Metadata: map[string]interface{}{
				schema.MetadataKeySource: "notes.txt",
			},
		},
	}

	got := FormatContext(docs)
	if !strings.Contains(got, "Source 1 (File: manual.pdf, Page: 2):") {
		t.Errorf("missing first source header in:\n%s", got)
	}
	if !strings.Contains(got, "Source 2 (File: notes.txt, Page: N/A):") {
		t.Errorf("missing second source header in:\n%s", got)
	}
	if !strings.Contains(got, "first chunk") || !strings.Contains(got, "second chunk") {
		t.Errorf("missing chunk text in:\n%s", got)
	}
	if strings.Count(got, "---") != 2 {
		t.Errorf("expected 2 separators, got %d", strings.Count(got, "---"))
	}
}

func TestFormatContext_CapsSnippetLength(t *testing.T) {
	docs := []*schema.Document{{
		Text:     strings.Repeat("x", 2000),
		Metadata: map[string]interface{}{schema.MetadataKeySource: "large.log"},
	}}

	got := FormatContext(docs)
	if count := strings.Count(got, "x"); count != 1500 {
		t.Errorf("expected snippet capped at 1500 characters, got %d", count)
	}
}

func TestQAPipeline_PromptContainsContextAndQuestion(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test", "")

	embedder := &fakeEmbedder{
		dim: 2,
		vectors: map[string][]float32{
			"the policy allows remote work": {1, 0},
			"what is the remote work policy": {1, 0},
		},
	}
	store := vectorstore.NewMemoryStore()
	err := store.Rebuild(ctx, []*schema.Document{{
		ID:        "chunk-1",
		Text:      "the policy allows remote work",
		Embedding: []float32{1, 0},
		Metadata: map[string]interface{}{
			schema.MetadataKeySource: "policy.pdf",
			schema.MetadataKeyPage:   1,
		},
	}})
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	model := &fakeLLM{answer: "  Remote work is allowed.  "}
	retriever := NewRetrievalPipeline(embedder, store, 3, log)
	qa := NewQAPipeline(retriever, model, log)

	result, err := qa.Run(ctx, "what is the remote work policy")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Answer != "Remote work is allowed." {
		t.Errorf("expected trimmed answer, got %q", result.Answer)
	}
	if len(result.ContextDocs) != 1 {
		t.Fatalf("expected 1 context doc, got %d", len(result.ContextDocs))
	}

	if !strings.Contains(model.prompt, "Do NOT use any external knowledge.") {
		t.Error("prompt is missing the strict-context instruction")
	}
	if !strings.Contains(model.prompt, "Source 1 (File: policy.pdf, Page: 1):") {
		t.Error("prompt is missing the source header")
	}
	if !strings.Contains(model.prompt, "QUESTION:\nwhat is the remote work policy") {
		t.Error("prompt is missing the question block")
	}
}

func TestQAPipeline_GenerationFailure(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test", "")

	embedder := &fakeEmbedder{dim: 2}
	store := vectorstore.NewMemoryStore()
	if err := store.Rebuild(ctx, []*schema.Document{{
		ID:        "chunk-1",
		Text:      "content",
		Embedding: []float32{1, 0},
		Metadata:  map[string]interface{}{},
	}}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	model := &fakeLLM{err: fmt.Errorf("quota exceeded")}
	retriever := NewRetrievalPipeline(embedder, store, 3, log)
	qa := NewQAPipeline(retriever, model, log)

	if _, err := qa.Run(ctx, "anything"); err == nil {
		t.Fatal("expected error when generation fails")
	}
}
