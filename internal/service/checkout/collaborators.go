package checkout

import (
	"context"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// ProductRecognizer identifies a product on a photo, preferring a match among the known products.
type ProductRecognizer interface {
	IdentifyProduct(ctx context.Context, image models.Media, known []models.Product) (models.IdentifiedProduct, error)
}

// PriceEstimator quotes a market price for a product name in a currency.
type PriceEstimator interface {
	EstimatePrice(ctx context.Context, name, currencyCode string) (models.PriceQuote, error)
}

// CrossSellAdvisor suggests products frequently bought with the cart.
type CrossSellAdvisor interface {
	SuggestCrossSell(ctx context.Context, items []models.LineItem) ([]string, error)
}

// VoiceInterpreter turns a spoken order into product requests.
type VoiceInterpreter interface {
	InterpretVoice(ctx context.Context, audio models.Media) (models.VoiceCommand, error)
}

// ReceiptRenderer renders a receipt image and returns it as a data URI.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, draft models.ReceiptDraft) (string, error)
}

// Catalog lists the products the store already knows.
type Catalog interface {
	KnownProducts(ctx context.Context) ([]models.Product, error)
}

// HistoryWriter appends paid transactions to the history.
type HistoryWriter interface {
	AppendRecord(ctx context.Context, record models.TransactionRecord) error
}

// Journal exports paid transactions for bookkeeping.
type Journal interface {
	RecordSale(ctx context.Context, record models.TransactionRecord) error
}

// StaticCatalog serves a fixed product list.
type StaticCatalog []models.Product

// KnownProducts returns a copy of the list.
func (c StaticCatalog) KnownProducts(context.Context) ([]models.Product, error) {
	return append([]models.Product(nil), c...), nil
}
