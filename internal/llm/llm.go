package llm

import (
	"context"
	"fmt"

	"foxo/internal/config"
)

// SpeakerRole identifies who produced a conversation message.
type SpeakerRole string

const (
	SpeakerUser  SpeakerRole = "user"
	SpeakerModel SpeakerRole = "model"
	SpeakerTool  SpeakerRole = "tool"
)

// FunctionCall is a request from the model to invoke a named tool.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse carries a tool's output back to the model.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Message is one turn of a conversation in a provider-neutral shape.
// Exactly one of Text, FunctionCall, or FunctionResponse is expected to be
// set.
type Message struct {
	Role             SpeakerRole
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// ToolParam describes a single parameter of a tool.
type ToolParam struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean"
	Description string
	Required    bool
}

// ToolSpec declares a tool the model may call during a chat.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ChatModel is the common interface for chat-capable language models. Chat is
// stateless: the caller owns the history and passes it in full on every call.
type ChatModel interface {
	// Chat sends the conversation to the model and returns its next message.
	// Providers without native function calling return text-only messages
	// and ignore the tool specs.
	Chat(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Message, error)

	// Generate runs a single-shot completion with no history or tools.
	Generate(ctx context.Context, prompt string) (string, error)
}

// New is a factory that creates the configured chat model.
func New(ctx context.Context, cfg config.LLMConfig) (ChatModel, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
