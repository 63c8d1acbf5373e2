// Package openai talks to an OpenAI-compatible chat completions endpoint
// carrying the pasture image as a base64 data URI.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Evils19/BioMasa/pkg/client"
	"github.com/Evils19/BioMasa/pkg/prompt"
)

// Fixed sampling parameters: low temperature for deterministic structured
// output, bounded response length.
const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 1000
)

// Client is an OpenAI-compatible vision client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Message is one chat turn. Content is a string for the system turn and
// []ContentPart for the user turn carrying the image.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for the given endpoint. model selects the
// remote vision model; apiKey may be empty for local deployments.
func NewClient(serverURL, apiKey, model string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Analyze sends one chat completion request with the image embedded as a
// data URI and returns the candidate JSON text from the reply.
func (c *Client) Analyze(ctx context.Context, image []byte, promptText string) (string, error) {
	if err := client.ValidateImage(image); err != nil {
		return "", err
	}

	mime := client.DetectImageMIME(image)
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	req := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role:    "system",
				Content: prompt.SystemPrompt,
			},
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: promptText},
					{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}},
				},
			},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Stream:      false,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed completion response: %v", client.ErrService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion response", client.ErrService)
	}

	text := contentText(resp.Choices[0].Message.Content)
	text = client.ExtractJSON(text)
	if text == "" {
		return "", client.ErrEmptyResponse
	}
	return text, nil
}

// contentText normalizes the two reply shapes (plain string or content
// part list) immediately after receipt.
func contentText(content interface{}) string {
	switch v := content.(type) {
	case string:
		return v
	case []interface{}:
		for _, item := range v {
			if part, ok := item.(map[string]interface{}); ok {
				if text, ok := part["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// covers connection faults, timeouts and caller cancellation
		return nil, fmt.Errorf("%w: %v", client.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", client.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", client.ErrService, resp.StatusCode, string(body))
	}
	return body, nil
}
