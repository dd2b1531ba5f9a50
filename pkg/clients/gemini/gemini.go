package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

const (
	defaultModel      = "gemini-2.0-flash"
	defaultImageModel = "gemini-2.0-flash-preview-image-generation"
)

var (
	// ErrNoCandidate is returned when the model answers without usable content.
	ErrNoCandidate = errors.New("gemini returned no candidate")
	// ErrNoImage is returned when an image generation answer carries no inline image.
	ErrNoImage = errors.New("gemini returned no image")
)

// Config carries the Gemini connection settings. Endpoint is only overridden in tests.
type Config struct {
	APIKey     string
	Model      string
	ImageModel string
	Endpoint   string
}

// Client wraps the Generative Language API for audio understanding and image generation.
type Client struct {
	models     *generativelanguage.ModelsService
	model      string
	imageModel string
	logger     *zap.Logger
}

// NewClient builds a Gemini client authenticated with an API key.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	return &Client{
		models:     svc.Models,
		model:      modelName(cfg.Model),
		imageModel: modelName(cfg.ImageModel),
		logger:     logger,
	}, nil
}

func modelName(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func (c *Client) generate(ctx context.Context, model string, parts []*generativelanguage.Part, genCfg *generativelanguage.GenerationConfig) ([]*generativelanguage.Part, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{
			{Role: "user", Parts: parts},
		},
		GenerationConfig: genCfg,
	}

	resp, err := c.models.GenerateContent(model, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoCandidate
	}

	c.logger.Debug("gemini response received",
		zap.String("model", model),
		zap.String("finish_reason", resp.Candidates[0].FinishReason),
	)
	return resp.Candidates[0].Content.Parts, nil
}

func inlinePart(mimeType string, data []byte) *generativelanguage.Part {
	return &generativelanguage.Part{InlineData: &generativelanguage.Blob{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

func textOf(parts []*generativelanguage.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
