package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"foxo/internal/config"
)

// generateTemperature keeps single-shot completions factual. Retrieval-backed
// answers should stick to the supplied context rather than get creative.
const generateTemperature = 0.1

// Gemini is a ChatModel backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a new Gemini client.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini chat model: %w", config.ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Chat sends the conversation and tool declarations to Gemini and returns the
// model's next message. The history must end with a user or tool message.
func (g *Gemini) Chat(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Message, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("chat history is empty")
	}

	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{{
			FunctionDeclarations: toGeminiDeclarations(tools),
		}}
	}

	cs := model.StartChat()
	for _, msg := range history[:len(history)-1] {
		cs.History = append(cs.History, toGenaiContent(msg))
	}

	last := history[len(history)-1]
	resp, err := cs.SendMessage(ctx, toGenaiParts(last)...)
	if err != nil {
		return nil, fmt.Errorf("gemini chat request failed: %w", err)
	}
	return fromGenaiResponse(resp)
}

// Generate runs a single-shot, low-temperature completion.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(generateTemperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}
	msg, err := fromGenaiResponse(resp)
	if err != nil {
		return "", err
	}
	return msg.Text, nil
}

func toGeminiDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.Params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(tool.Params)),
			}
			for _, param := range tool.Params {
				schema.Properties[param.Name] = &genai.Schema{
					Type:        toGeminiType(param.Type),
					Description: param.Description,
				}
				if param.Required {
					schema.Required = append(schema.Required, param.Name)
				}
			}
			decl.Parameters = schema
		}
		declarations = append(declarations, decl)
	}
	return declarations
}

func toGeminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func toGenaiContent(msg Message) *genai.Content {
	role := "user"
	switch msg.Role {
	case SpeakerModel:
		role = "model"
	case SpeakerTool:
		role = "function"
	}
	return &genai.Content{
		Role:  role,
		Parts: toGenaiParts(msg),
	}
}

func toGenaiParts(msg Message) []genai.Part {
	switch {
	case msg.FunctionCall != nil:
		return []genai.Part{genai.FunctionCall{
			Name: msg.FunctionCall.Name,
			Args: msg.FunctionCall.Args,
		}}
	case msg.FunctionResponse != nil:
		return []genai.Part{genai.FunctionResponse{
			Name:     msg.FunctionResponse.Name,
			Response: msg.FunctionResponse.Response,
		}}
	default:
		return []genai.Part{genai.Text(msg.Text)}
	}
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) (*Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	msg := &Message{Role: SpeakerModel}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			msg.Text += string(v)
		case genai.FunctionCall:
			msg.FunctionCall = &FunctionCall{
				Name: v.Name,
				Args: v.Args,
			}
		}
	}
	return msg, nil
}

var _ ChatModel = (*Gemini)(nil)
