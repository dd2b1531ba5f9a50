package anthropic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const identifySystemPrompt = `You are an expert product identifier working at a store checkout.
You will be given an image of a product and a list of known products with their IDs, names, and prices.
1. Identify the common name of the product in the image.
2. Determine if it closely matches a product in the list. A close match is likely the same item
   ("Organic Gala Apples" vs "Organic Apples" is a match, "Soda Can" vs "Water Bottle" is not).
3. If there is no match, estimate its typical market price in USD.
Answer ONLY with a JSON object:
{"product_id": "<id from the list or null>", "name": "<list name or identified name>", "price": <number>, "match_found": <true|false>}`

const priceSystemPrompt = `You are a pricing expert. Estimate the typical market price of the product
in the requested currency. Answer ONLY with a JSON object: {"price": <number>}`

const crossSellSystemPrompt = `You are a helpful shopping assistant that suggests products frequently bought
together with the items in the cart. Suggest 3 products. Only suggest product names and nothing else.
Answer ONLY with a JSON object: {"suggestions": ["<name>", "<name>", "<name>"]}`

type identifyResult struct {
	ProductID  *string `json:"product_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	MatchFound bool    `json:"match_found"`
}

// IdentifyProduct recognises the product on the photo, matching it against the known products.
func (c *Client) IdentifyProduct(ctx context.Context, image models.Media, known []models.Product) (models.IdentifiedProduct, error) {
	var list strings.Builder
	for _, p := range known {
		fmt.Fprintf(&list, "- ID: %s, Name: %q, Price: %.2f\n", p.ID, p.Name, p.Price)
	}
	if list.Len() == 0 {
		list.WriteString("(no known products)\n")
	}

	var result identifyResult
	content := []contentBlock{
		imageBlock(image.MimeType, image.Data),
		textBlock("List of known products:\n" + list.String()),
	}
	if err := c.completeJSON(ctx, identifySystemPrompt, content, &result); err != nil {
		return models.IdentifiedProduct{}, fmt.Errorf("identify product: %w", err)
	}

	name := strings.TrimSpace(result.Name)
	if name == "" || !validPrice(result.Price) {
		return models.IdentifiedProduct{}, fmt.Errorf("identify product: %w: missing name or price", ErrMalformedResponse)
	}

	identified := models.IdentifiedProduct{Name: name, Price: result.Price}
	if result.MatchFound && result.ProductID != nil {
		// the catalog stays authoritative for matched products
		for _, p := range known {
			if p.ID == *result.ProductID {
				identified = models.IdentifiedProduct{ProductID: p.ID, Name: p.Name, Price: p.Price, MatchedKnown: true}
				break
			}
		}
	}
	return identified, nil
}

// EstimatePrice estimates a market price for name in currencyCode. The quote keeps the given name.
func (c *Client) EstimatePrice(ctx context.Context, name, currencyCode string) (models.PriceQuote, error) {
	var result struct {
		Price float64 `json:"price"`
	}
	prompt := fmt.Sprintf("Product Name/Identifier: %s\nTarget Currency: %s", name, currencyCode)
	if err := c.completeJSON(ctx, priceSystemPrompt, []contentBlock{textBlock(prompt)}, &result); err != nil {
		return models.PriceQuote{}, fmt.Errorf("estimate price for %q: %w", name, err)
	}
	if !validPrice(result.Price) {
		return models.PriceQuote{}, fmt.Errorf("estimate price for %q: %w: price %v", name, ErrMalformedResponse, result.Price)
	}
	return models.PriceQuote{Name: name, Price: result.Price}, nil
}

// SuggestCrossSell proposes products frequently bought with the cart items.
func (c *Client) SuggestCrossSell(ctx context.Context, items []models.LineItem) ([]string, error) {
	var cart strings.Builder
	cart.WriteString("Here are the items currently in the cart:\n")
	for _, item := range items {
		fmt.Fprintf(&cart, "- %d x %s\n", item.Quantity, item.Name)
	}

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.completeJSON(ctx, crossSellSystemPrompt, []contentBlock{textBlock(cart.String())}, &result); err != nil {
		return nil, fmt.Errorf("suggest cross-sell: %w", err)
	}

	suggestions := make([]string, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
