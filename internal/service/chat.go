package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kiloapp/kilo-v2/backend/config"
)

// ErrNotConfigured is returned by every chat call when no API key is set. The
// server still starts; LLM-backed endpoints fail closed.
var ErrNotConfigured = errors.New("LLM API key is not configured")

// ErrRegionBlocked maps the provider's HTTP 400 region rejection. It is the one
// transport error surfaced to clients instead of soft-failing, so the UI can
// show its dedicated screen.
var ErrRegionBlocked = errors.New("LLM provider is not available in this region")

// Message represents a message in the chat. Content is either a plain string
// or a list of ContentPart for multimodal requests.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents a request to the chat completions API.
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature,omitempty"`
}

// ChatClient talks to the hosted chat-completions API.
type ChatClient struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewChatClient creates a ChatClient from the loaded configuration.
func NewChatClient(cfg *config.Config) *ChatClient {
	return &ChatClient{
		apiKey: cfg.LLMAPIKey,
		apiURL: cfg.LLMAPIURL,
		model:  cfg.LLMModel,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

// Complete sends one system+user exchange and returns the raw response text.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	return c.do(ctx, messages)
}

// CompleteWithPhotos sends a multimodal exchange. Photos are base64-encoded
// JPEG payloads without the data-URL prefix.
func (c *ChatClient) CompleteWithPhotos(ctx context.Context, system, user string, photos []string) (string, error) {
	parts := []ContentPart{{Type: "text", Text: user}}
	for _, p := range photos {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + p},
		})
	}

	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: parts},
	}
	return c.do(ctx, messages)
}

func (c *ChatClient) do(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := Request{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		return "", fmt.Errorf("%w: %s", ErrRegionBlocked, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}
