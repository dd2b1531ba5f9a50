package gemini

import (
	"context"
	"fmt"
	"strings"

	generativelanguage "google.golang.org/api/generativelanguage/v1beta"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const (
	nameWidth  = 20
	qtyWidth   = 4
	priceWidth = 8
	totalWidth = 10
)

const receiptInstructions = `Generate a highly realistic image of a standard store receipt. The receipt should be vertically
oriented, clear, legible, and look like it was printed on white paper from a thermal printer.

Receipt Details:
%s
Instructions:
1. Strictly follow the layout and spacing above, in a clean monospaced thermal printer font.
2. Plain white background, dark text, vertical orientation.
3. No logos, decorations or extra text. Render all text and numbers exactly as provided.`

// RenderReceipt asks the image model for a picture of the receipt and returns it as a data URI.
func (c *Client) RenderReceipt(ctx context.Context, draft models.ReceiptDraft) (string, error) {
	prompt := fmt.Sprintf(receiptInstructions, FormatReceipt(draft))

	parts, err := c.generate(ctx, c.imageModel, []*generativelanguage.Part{{Text: prompt}},
		&generativelanguage.GenerationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}})
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}

	for _, p := range parts {
		if p != nil && p.InlineData != nil && p.InlineData.Data != "" {
			return "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data, nil
		}
	}
	return "", fmt.Errorf("render receipt: %w", ErrNoImage)
}

// FormatReceipt lays the bill out as fixed-width receipt text.
func FormatReceipt(draft models.ReceiptDraft) string {
	symbol := draft.CurrencySymbol
	money := func(v float64) string { return ledger.FormatAmount(symbol, v) }
	stars := strings.Repeat("*", 36)
	dashes := strings.Repeat("-", 36)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n%s\n", stars, centered(draft.StoreName), centered("Date: "+draft.Date), stars)

	header := fmt.Sprintf("%-*s%*s%*s%*s", nameWidth, "Item", qtyWidth, "Qty", priceWidth, "Price", totalWidth, "Total")
	fmt.Fprintf(&b, "%s\n%s\n", header, strings.Repeat("-", len(header)))
	for _, item := range draft.Items {
		fmt.Fprintf(&b, "%-*s%*d%*s%*s\n",
			nameWidth, truncate(item.Name, nameWidth),
			qtyWidth, item.Quantity,
			priceWidth, money(item.UnitPrice),
			totalWidth, money(item.LineTotal()),
		)
	}

	fmt.Fprintf(&b, "%s\n", dashes)
	fmt.Fprintf(&b, "%-18s%18s\n", "Subtotal:", money(draft.Subtotal))
	fmt.Fprintf(&b, "%-18s%18s\n", fmt.Sprintf("Discount (%.2f%%):", draft.DiscountPercentage), "-"+money(draft.DiscountAmount))
	fmt.Fprintf(&b, "%-18s%18s\n", fmt.Sprintf("Tax (%.2f%%):", draft.TaxPercentage), "+"+money(draft.TaxAmount))
	fmt.Fprintf(&b, "%s\n", dashes)
	fmt.Fprintf(&b, "%-18s%18s\n", "GRAND TOTAL:", money(draft.GrandTotal))
	fmt.Fprintf(&b, "%s\n%s\n%s\n", stars, centered("Thank you for your purchase!"), stars)
	return b.String()
}

func truncate(name string, width int) string {
	runes := []rune(name)
	if len(runes) <= width {
		return name
	}
	return string(runes[:width-3]) + "..."
}

func centered(text string) string {
	pad := (36 - len([]rune(text))) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}
