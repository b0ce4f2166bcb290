package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"foxo/internal/llm"
	"foxo/internal/rag/pipeline"
	"foxo/internal/rag/schema"
	"foxo/pkg/logger"
)

// scriptedModel replays a fixed sequence of messages and records the
// histories it was called with.
type scriptedModel struct {
	script    []*llm.Message
	calls     int
	histories [][]llm.Message
}

func (m *scriptedModel) Chat(ctx context.Context, system string, history []llm.Message, tools []llm.ToolSpec) (*llm.Message, error) {
	m.histories = append(m.histories, append([]llm.Message(nil), history...))
	if m.calls >= len(m.script) {
		return nil, fmt.Errorf("script exhausted after %d calls", m.calls)
	}
	msg := m.script[m.calls]
	m.calls++
	return msg, nil
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("not used")
}

// fakeKB returns a fixed QA result.
type fakeKB struct {
	result *pipeline.QAResult
	err    error
}

func (f *fakeKB) Run(ctx context.Context, question string) (*pipeline.QAResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSearcher struct{ response string }

func (f *fakeSearcher) Search(ctx context.Context, query string) string { return f.response }

func newTestToolset(kb KnowledgeBase) *Toolset {
	log := logger.New("test", "")
	return NewToolset(kb, &Calculator{}, &fakeSearcher{response: "Web Search Results:\n1. [t](u)\n"}, log)
}

func TestRouter_DirectAnswerStripsTerminate(t *testing.T) {
	model := &scriptedModel{script: []*llm.Message{
		{Role: llm.SpeakerModel, Text: "Paris is the capital of France.\nTERMINATE"},
	}}
	router := NewRouter(model, newTestToolset(&fakeKB{}), 5, logger.New("test", ""))

	reply, err := router.Ask(context.Background(), "capital of France?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Answer != "Paris is the capital of France." {
		t.Errorf("unexpected answer: %q", reply.Answer)
	}
	if strings.Contains(reply.Answer, "TERMINATE") {
		t.Error("sentinel leaked into the answer")
	}
	if model.calls != 1 {
		t.Errorf("expected 1 model call, got %d", model.calls)
	}
}

func TestRouter_ToolCallFeedsResultBack(t *testing.T) {
	model := &scriptedModel{script: []*llm.Message{
		{Role: llm.SpeakerModel, FunctionCall: &llm.FunctionCall{
			Name: string(ToolCalculator),
			Args: map[string]any{"expression": "2+2"},
		}},
		{Role: llm.SpeakerModel, Text: "The answer is 4. TERMINATE"},
	}}
	router := NewRouter(model, newTestToolset(&fakeKB{}), 5, logger.New("test", ""))

	reply, err := router.Ask(context.Background(), "what is 2+2?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Answer != "The answer is 4." {
		t.Errorf("unexpected answer: %q", reply.Answer)
	}

	// Second call must carry the tool response in the history.
	if len(model.histories) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(model.histories))
	}
	second := model.histories[1]
	last := second[len(second)-1]
	if last.FunctionResponse == nil || last.FunctionResponse.Name != string(ToolCalculator) {
		t.Fatal("expected last history entry to be the calculator's response")
	}
	result, _ := last.FunctionResponse.Response["result"].(string)
	if !strings.Contains(result, "is 4") {
		t.Errorf("unexpected tool result in history: %q", result)
	}

	var sawCall, sawResult bool
	for _, turn := range reply.Turns {
		switch turn.Kind {
		case TurnToolCall:
			sawCall = true
		case TurnToolResult:
			sawResult = true
		}
	}
	if !sawCall || !sawResult {
		t.Error("transcript is missing the tool call or its result")
	}
}

func TestRouter_UnknownToolEndsExchange(t *testing.T) {
	model := &scriptedModel{script: []*llm.Message{
		{Role: llm.SpeakerModel, FunctionCall: &llm.FunctionCall{
			Name: "launch_rockets",
			Args: map[string]any{},
		}},
	}}
	router := NewRouter(model, newTestToolset(&fakeKB{}), 5, logger.New("test", ""))

	reply, err := router.Ask(context.Background(), "do something")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(reply.Answer, "unknown tool") {
		t.Errorf("expected unknown-tool answer, got %q", reply.Answer)
	}
	if model.calls != 1 {
		t.Errorf("expected the exchange to stop after the unknown tool, got %d calls", model.calls)
	}

	lastTurn := reply.Turns[len(reply.Turns)-1]
	if lastTurn.Kind != TurnError {
		t.Errorf("expected final transcript turn to be an error, got %q", lastTurn.Kind)
	}
}

func TestRouter_RoundBudgetFallsBackToLastText(t *testing.T) {
	// The model keeps talking without ever terminating.
	script := make([]*llm.Message, 0, 3)
	for i := 1; i <= 3; i++ {
		script = append(script, &llm.Message{
			Role: llm.SpeakerModel,
			Text: fmt.Sprintf("thought %d", i),
		})
	}
	model := &scriptedModel{script: script}
	router := NewRouter(model, newTestToolset(&fakeKB{}), 3, logger.New("test", ""))

	reply, err := router.Ask(context.Background(), "ramble")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Answer != "thought 3" {
		t.Errorf("expected last substantive text as fallback, got %q", reply.Answer)
	}
	if model.calls != 3 {
		t.Errorf("expected exactly 3 model calls, got %d", model.calls)
	}
}

func TestRouter_KnowledgeBaseToolFormatsCitations(t *testing.T) {
	kb := &fakeKB{result: &pipeline.QAResult{
		Answer: "Remote work is allowed.",
		ContextDocs: []*schema.Document{
			{Metadata: map[string]interface{}{
				schema.MetadataKeySource: "policy.pdf",
				schema.MetadataKeyPage:   1,
			}},
			{Metadata: map[string]interface{}{
				schema.MetadataKeySource: "handbook.txt",
			}},
		},
	}}

	model := &scriptedModel{script: []*llm.Message{
		{Role: llm.SpeakerModel, FunctionCall: &llm.FunctionCall{
			Name: string(ToolQueryKnowledgeBase),
			Args: map[string]any{"query": "remote work policy"},
		}},
		{Role: llm.SpeakerModel, Text: "Done. TERMINATE"},
	}}
	router := NewRouter(model, newTestToolset(kb), 5, logger.New("test", ""))

	reply, err := router.Ask(context.Background(), "what is the remote work policy?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	var toolResult string
	for _, turn := range reply.Turns {
		if turn.Kind == TurnToolResult {
			toolResult = turn.Content
		}
	}
	want := "Answer: Remote work is allowed.\nCited Sources: [Source: policy.pdf, Page: 1]; [Source: handbook.txt, Page: N/A]"
	if toolResult != want {
		t.Errorf("unexpected tool result:\n got %q\nwant %q", toolResult, want)
	}
}
