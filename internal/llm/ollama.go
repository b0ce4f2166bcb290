package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama is a ChatModel backed by a local Ollama server. It has no native
// function calling, so Chat flattens the conversation into a prompt and tool
// specs are ignored.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates a new Ollama client. An empty baseURL defaults to the
// local server.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Chat renders the conversation into a single prompt and returns the model's
// text reply.
func (o *Ollama) Chat(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Message, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("chat history is empty")
	}

	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	for _, msg := range history {
		switch {
		case msg.FunctionResponse != nil:
			sb.WriteString(fmt.Sprintf("Tool %s returned: %v\n", msg.FunctionResponse.Name, msg.FunctionResponse.Response))
		case msg.Text != "":
			sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Text))
		}
	}

	text, err := o.Generate(ctx, sb.String())
	if err != nil {
		return nil, err
	}
	return &Message{Role: SpeakerModel, Text: text}, nil
}

// Generate runs a single non-streaming completion.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	stream := false
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		result = resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	return result, nil
}

var _ ChatModel = (*Ollama)(nil)
