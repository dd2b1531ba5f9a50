package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	generativelanguage "google.golang.org/api/generativelanguage/v1beta"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// UnintelligibleTranscript is reported when the recording holds no recognisable speech.
const UnintelligibleTranscript = "Could not understand audio."

// ErrEmptyTranscription is returned when transcription yields no text part at all.
var ErrEmptyTranscription = errors.New("failed to transcribe audio command")

const transcribePrompt = "Transcribe this spoken shopping command verbatim. Answer with the transcript only."

const interpretPrompt = `You are an expert at interpreting shopping commands.
From the following text, extract the products and their quantities.
Answer with JSON: {"items": [{"product_name": "<name>", "quantity": <integer>}]}
Text: %q`

// InterpretVoice transcribes the recording and extracts the requested products.
func (c *Client) InterpretVoice(ctx context.Context, audio models.Media) (models.VoiceCommand, error) {
	parts, err := c.generate(ctx, c.model, []*generativelanguage.Part{
		inlinePart(audio.MimeType, audio.Data),
		{Text: transcribePrompt},
	}, &generativelanguage.GenerationConfig{ResponseModalities: []string{"TEXT"}})
	if err != nil {
		return models.VoiceCommand{}, fmt.Errorf("transcribe voice command: %w", err)
	}
	if len(parts) == 0 {
		return models.VoiceCommand{}, ErrEmptyTranscription
	}

	transcript := textOf(parts)
	if transcript == "" {
		return models.VoiceCommand{Transcript: UnintelligibleTranscript, Items: []models.VoiceItem{}}, nil
	}

	parts, err = c.generate(ctx, c.model, []*generativelanguage.Part{
		{Text: fmt.Sprintf(interpretPrompt, transcript)},
	}, &generativelanguage.GenerationConfig{ResponseMimeType: "application/json"})
	if err != nil {
		return models.VoiceCommand{}, fmt.Errorf("interpret voice command: %w", err)
	}

	items, err := parseVoiceItems(textOf(parts))
	if err != nil {
		return models.VoiceCommand{}, fmt.Errorf("interpret voice command: %w", err)
	}
	return models.VoiceCommand{Transcript: transcript, Items: items}, nil
}

func parseVoiceItems(raw string) ([]models.VoiceItem, error) {
	var payload struct {
		Items []models.VoiceItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode interpretation: %w", err)
	}

	items := make([]models.VoiceItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		item.ProductName = strings.TrimSpace(item.ProductName)
		if item.ProductName == "" {
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	return items, nil
}
