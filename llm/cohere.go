package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const defaultCohereModel = "command-r-plus"

// CohereClient implements Completer on the Cohere Chat API.
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

func NewCohereClient(apiKey, model string) *CohereClient {
	if model == "" {
		model = defaultCohereModel
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)
	return &CohereClient{client: client, model: model}
}

func (c *CohereClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	model := c.model
	preamble := systemPrompt
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:   prompt,
		Model:     &model,
		Preamble:  &preamble,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}

func (c *CohereClient) ModelName() string { return c.model }
