package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const narrativeSystemPrompt = `You are a business intelligence analyst. You are given computed sales metrics
for a store. Write a concise, insightful summary for the business owner: highlight trends, top-performing
products and any actionable advice, e.g. whether sales are concentrated on specific days.
Do not recompute the metrics. Answer ONLY with a JSON object: {"summary": "<text>"}`

// NarrateSales writes a short analysis of the summary.
func (c *Client) NarrateSales(ctx context.Context, currencyCode string, summary models.SalesSummary) (string, error) {
	metrics, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal sales summary: %w", err)
	}

	prompt := fmt.Sprintf("Currency: %s\nSales data (JSON):\n%s", currencyCode, metrics)
	var result struct {
		Summary string `json:"summary"`
	}
	if err := c.completeJSON(ctx, narrativeSystemPrompt, []contentBlock{textBlock(prompt)}, &result); err != nil {
		return "", fmt.Errorf("narrate sales: %w", err)
	}

	text := strings.TrimSpace(result.Summary)
	if text == "" {
		return "", fmt.Errorf("narrate sales: %w", ErrEmptyResponse)
	}
	return text, nil
}
