// Package ollama adapts a local Ollama deployment to the vision backend
// contract.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/Evils19/BioMasa/pkg/client"
	"github.com/Evils19/BioMasa/pkg/prompt"
)

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama vision client for the given server URL.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	// Base URL only; the SDK appends /api/chat itself
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

// Analyze sends one chat request with the raw image bytes attached and
// returns the candidate JSON text from the reply.
func (c *Client) Analyze(ctx context.Context, image []byte, promptText string) (string, error) {
	if err := client.ValidateImage(image); err != nil {
		return "", err
	}

	// Vision models on CPU can be slow; cap the call if the caller didn't
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "system",
				Content: prompt.SystemPrompt,
			},
			{
				Role:    "user",
				Content: promptText,
				Images:  []api.ImageData{api.ImageData(image)},
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"temperature": 0.3,
			"num_predict": 1000,
		},
	}

	var responseContent string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", fmt.Errorf("%w: ollama status %d: %s", client.ErrService, statusErr.StatusCode, statusErr.ErrorMessage)
		}
		return "", fmt.Errorf("%w: ollama chat: %v", client.ErrTransport, err)
	}

	text := client.ExtractJSON(responseContent)
	if text == "" {
		return "", client.ErrEmptyResponse
	}
	return text, nil
}
