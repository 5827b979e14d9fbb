package openai

import (
	"context"
	"time"

	"medvault-api/internal/domain/apperror"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionClient is the single boundary to the chat completion API.
// The core only depends on Complete(prompt) -> text.
type CompletionClient struct {
	client     *openai.Client
	model      string
	maxRetries int
	backoff    time.Duration
}

func NewCompletionClient(apiKey, model string, maxRetries int, backoff time.Duration) *CompletionClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &CompletionClient{
		client:     openai.NewClient(apiKey),
		model:      model,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Complete runs one chat completion with bounded retry and backoff.
// Exhaustion surfaces as an upstream error, never a panic.
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
	}

	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", apperror.Upstream("completion cancelled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = apperror.Upstream("empty completion response", nil)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", apperror.Upstream("completion failed after retries", lastErr)
}
