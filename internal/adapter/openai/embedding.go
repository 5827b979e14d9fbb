package openai

import (
	"context"

	"medvault-api/internal/domain/apperror"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
)

type EmbeddingClient struct {
	client *openai.Client
	model  string
}

func NewEmbeddingClient(apiKey, model string) *EmbeddingClient {
	return &EmbeddingClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Embed computes one embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(vectors) == 0 {
		return pgvector.Vector{}, apperror.Upstream("no embedding returned", nil)
	}
	return vectors[0], nil
}

// EmbedBatch computes embeddings for all texts in one request. Chunks
// are independent, so the provider handles them in parallel server-side.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, apperror.Upstream("embedding request failed", err)
	}

	// the API is free to return entries in any order; Index ties each
	// embedding back to its input position
	vectors := make([]pgvector.Vector, len(resp.Data))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, apperror.Upstream("embedding response index out of range", nil)
		}
		embedding := make([]float32, len(data.Embedding))
		copy(embedding, data.Embedding)
		vectors[data.Index] = pgvector.NewVector(embedding)
	}

	return vectors, nil
}
