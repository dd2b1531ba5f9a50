package models

// Product is a catalog entry known to the store.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// IdentifiedProduct is the result of recognising a product from a photo.
type IdentifiedProduct struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	MatchedKnown bool    `json:"matched_known"`
}

// PriceQuote is an estimated market price for a product in a currency.
type PriceQuote struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// VoiceItem is one product request extracted from a spoken command.
type VoiceItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// VoiceCommand is a transcribed and interpreted spoken order.
type VoiceCommand struct {
	Transcript string      `json:"transcript"`
	Items      []VoiceItem `json:"items"`
}

// ReceiptDraft carries everything needed to render a receipt image.
type ReceiptDraft struct {
	StoreName          string
	Date               string
	CurrencySymbol     string
	Items              []LineItem
	Subtotal           float64
	DiscountPercentage float64
	DiscountAmount     float64
	TaxPercentage      float64
	TaxAmount          float64
	GrandTotal         float64
}

var defaultProducts = []Product{
	{ID: "1001", Name: "Organic Milk", Price: 3.50},
	{ID: "1002", Name: "Sourdough Bread", Price: 4.20},
	{ID: "1003", Name: "Free-Range Eggs (12ct)", Price: 5.00},
	{ID: "1004", Name: "Avocado", Price: 1.75},
	{ID: "1005", Name: "Artisan Coffee Beans", Price: 12.99},
	{ID: "1006", Name: "Imported Olive Oil", Price: 9.50},
	{ID: "1007", Name: "Gourmet Chocolate Bar", Price: 3.25},
	{ID: "1008", Name: "Fresh Orange Juice (1L)", Price: 4.00},
	{ID: "1009", Name: "Greek Yogurt (500g)", Price: 3.75},
	{ID: "1010", Name: "Quinoa (1kg)", Price: 6.50},
	{ID: "1011", Name: "Sparkling Water (6 pack)", Price: 5.25},
	{ID: "1012", Name: "Organic Apples (per lb)", Price: 2.99},
	{ID: "1013", Name: "Cheddar Cheese Block", Price: 6.70},
	{ID: "1014", Name: "Whole Wheat Pasta", Price: 2.50},
	{ID: "1015", Name: "Natural Peanut Butter", Price: 4.80},
}

// DefaultProducts returns the built-in catalog used when no external catalog is configured.
func DefaultProducts() []Product {
	out := make([]Product, len(defaultProducts))
	copy(out, defaultProducts)
	return out
}
