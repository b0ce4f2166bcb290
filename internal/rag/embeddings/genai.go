package embeddings

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"foxo/internal/config"
	"foxo/internal/rag/interfaces"
)

// GoogleModel is an embedding client for the Google GenAI API.
type GoogleModel struct {
	model *genai.EmbeddingModel
}

// NewGoogleModel creates a GoogleModel client. It fails with
// config.ErrMissingAPIKey when no credential is supplied; embedding is a
// required capability and cannot degrade.
func NewGoogleModel(ctx context.Context, apiKey, modelName string) (*GoogleModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embedding: %w", config.ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleModel{model: client.EmbeddingModel(modelName)}, nil
}

// Embed generates one vector per input text using the batch embedding API.
// Output order matches input order.
func (m *GoogleModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed contents: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(res.Embeddings))
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

// compile-time check to ensure GoogleModel implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*GoogleModel)(nil)
