package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"foxo/internal/llm"
	"foxo/internal/rag/pipeline"
	"foxo/internal/rag/storages/vectorstore"
	"foxo/pkg/logger"
)

func TestToolset_SpecsDeclareAllTools(t *testing.T) {
	toolset := newTestToolset(&fakeKB{})
	specs := toolset.Specs()
	if len(specs) != 3 {
		t.Fatalf("expected 3 tool specs, got %d", len(specs))
	}

	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		names[spec.Name] = true
		if len(spec.Params) == 0 {
			t.Errorf("tool %s declares no parameters", spec.Name)
		}
	}
	for _, want := range []ToolName{ToolQueryKnowledgeBase, ToolCalculator, ToolWebSearch} {
		if !names[string(want)] {
			t.Errorf("missing spec for %s", want)
		}
	}
}

func TestToolset_UnknownToolIsError(t *testing.T) {
	toolset := newTestToolset(&fakeKB{})
	_, err := toolset.Execute(context.Background(), llm.FunctionCall{Name: "nope", Args: map[string]any{}})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestToolset_MissingArgumentIsTextError(t *testing.T) {
	toolset := newTestToolset(&fakeKB{})

	result, err := toolset.Execute(context.Background(), llm.FunctionCall{
		Name: string(ToolCalculator),
		Args: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result, "'expression' argument is required") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestToolset_KnowledgeBaseUnavailable(t *testing.T) {
	kb := &fakeKB{err: fmt.Errorf("searching vector store: %w", vectorstore.ErrCollectionNotFound)}
	toolset := newTestToolset(kb)

	result, err := toolset.Execute(context.Background(), llm.FunctionCall{
		Name: string(ToolQueryKnowledgeBase),
		Args: map[string]any{"query": "anything"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result, "knowledge base is not available") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestToolset_KnowledgeBaseNoMatches(t *testing.T) {
	kb := &fakeKB{result: &pipeline.QAResult{Answer: "I cannot answer based on the provided information."}}
	toolset := newTestToolset(kb)

	result, err := toolset.Execute(context.Background(), llm.FunctionCall{
		Name: string(ToolQueryKnowledgeBase),
		Args: map[string]any{"query": "unrelated question"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result, "No specific source documents were strongly matched") {
		t.Errorf("expected the no-match note, got %q", result)
	}
}

func TestWebSearcher_UnavailableWithoutKey(t *testing.T) {
	searcher := NewWebSearcher("", 3, logger.New("test", ""))
	if searcher.Available() {
		t.Error("searcher should be unavailable without an API key")
	}
	got := searcher.Search(context.Background(), "anything")
	if !strings.Contains(got, "TAVILY_API_KEY") {
		t.Errorf("expected unavailability message, got %q", got)
	}
}
