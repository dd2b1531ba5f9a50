package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024
)

var (
	// ErrEmptyResponse is returned when the API answers without any content block.
	ErrEmptyResponse = errors.New("empty response from ai")
	// ErrMalformedResponse is returned when the answer is not the JSON document asked for.
	ErrMalformedResponse = errors.New("malformed ai response")
)

// Config carries the Anthropic connection settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Anthropic Messages API.
type Client struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewClient creates a configured Anthropic client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{httpClient: client, model: cfg.Model, logger: logger}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func textBlock(text string) contentBlock {
	return contentBlock{Type: "text", Text: text}
}

func imageBlock(mimeType string, data []byte) contentBlock {
	return contentBlock{Type: "image", Source: &imageSource{
		Type:      "base64",
		MediaType: mimeType,
		Data:      base64.StdEncoding.EncodeToString(data),
	}}
}

// completeJSON sends one user turn and decodes the JSON object the model answers with into dst.
func (c *Client) completeJSON(ctx context.Context, system string, content []contentBlock, dst any) error {
	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []message{
			{Role: "user", Content: content},
			// Prefill the assistant response to force JSON
			{Role: "assistant", Content: []contentBlock{textBlock("{")}},
		},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(messagesPath)
	if err != nil {
		return fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("anthropic api error: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(respBody.Content) == 0 {
		return ErrEmptyResponse
	}

	// Reconstruct the full JSON since we prefilled the opening brace
	responseText := cleanJSON("{" + respBody.Content[0].Text)
	c.logger.Debug("ai response received", zap.Int("bytes", len(responseText)))

	if err := json.Unmarshal([]byte(responseText), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// cleanJSON strips markdown code fences Claude sometimes wraps around JSON.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{```") {
		text = strings.TrimPrefix(text, "{")
	}
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
