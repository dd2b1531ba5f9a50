package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

var (
	// ErrInvalidCurrency is returned when a currency code is empty.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrRepricingFailed wraps the first collaborator error of a currency change.
	ErrRepricingFailed = errors.New("repricing failed")
	// ErrInvalidPrice is returned when a repricing call yields a negative or non-finite price.
	ErrInvalidPrice = errors.New("invalid price")
)

// RepriceFunc returns the unit price of the named product in the target currency.
type RepriceFunc func(ctx context.Context, name, currencyCode string) (float64, error)

// Totals are derived from the ledger state on every read. Values are unrounded.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxableAmount  float64 `json:"taxable_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// Ledger holds the line items of the bill being built.
type Ledger struct {
	items              []models.LineItem
	discountPercentage float64
	taxPercentage      float64
	currencyCode       string
	newID              func() string
}

// New creates an empty ledger billing in currencyCode.
func New(currencyCode string) *Ledger {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "" {
		code = models.DefaultCurrencyCode
	}
	return &Ledger{currencyCode: code, newID: uuid.NewString}
}

// AddItem merges the product into an existing row with the same name (case-insensitive)
// or appends a new row. On merge quantities add up and prices are overwritten.
func (l *Ledger) AddItem(name string, unitPrice float64, quantity int, originalPrice float64) models.LineItem {
	return l.AddProduct("", name, unitPrice, quantity, originalPrice)
}

// AddProduct is AddItem for a product with a known catalog id.
func (l *Ledger) AddProduct(productID, name string, unitPrice float64, quantity int, originalPrice float64) models.LineItem {
	name = strings.TrimSpace(name)
	if quantity < 1 {
		quantity = 1
	}

	if idx := l.indexByName(name); idx >= 0 {
		item := &l.items[idx]
		item.Quantity += quantity
		item.UnitPrice = unitPrice
		item.OriginalUnitPrice = originalPrice
		if productID != "" {
			item.ProductID = productID
		}
		return *item
	}

	if productID == "" {
		productID = name
	}
	item := models.LineItem{
		ID:                l.newID(),
		ProductID:         productID,
		Name:              name,
		UnitPrice:         unitPrice,
		Quantity:          quantity,
		OriginalUnitPrice: originalPrice,
	}
	l.items = append(l.items, item)
	return item
}

// RemoveItem drops the row with the given id. Unknown ids are ignored.
func (l *Ledger) RemoveItem(id string) Totals {
	if idx := l.indexByID(id); idx >= 0 {
		l.items = append(l.items[:idx], l.items[idx+1:]...)
	}
	return l.Totals()
}

// SetQuantity updates a row in place; quantities below one remove it.
func (l *Ledger) SetQuantity(id string, quantity int) Totals {
	if quantity <= 0 {
		return l.RemoveItem(id)
	}
	if idx := l.indexByID(id); idx >= 0 {
		l.items[idx].Quantity = quantity
	}
	return l.Totals()
}

// ApplyDiscount sets the discount percentage.
func (l *Ledger) ApplyDiscount(percentage float64) Totals {
	l.discountPercentage = NormalizePercentage(percentage)
	return l.Totals()
}

// ApplyTax sets the tax percentage.
func (l *Ledger) ApplyTax(percentage float64) Totals {
	l.taxPercentage = NormalizePercentage(percentage)
	return l.Totals()
}

// ChangeCurrency reprices every item concurrently and switches currency only if all
// calls succeed. On failure prices and currency are left untouched.
func (l *Ledger) ChangeCurrency(ctx context.Context, code string, reprice RepriceFunc) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ErrInvalidCurrency
	}
	if code == l.currencyCode {
		return nil
	}
	if len(l.items) > 0 && reprice == nil {
		return fmt.Errorf("%w: no repricing source", ErrRepricingFailed)
	}

	prices := make([]float64, len(l.items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range l.items {
		g.Go(func() error {
			price, err := reprice(gctx, item.Name, code)
			if err != nil {
				return fmt.Errorf("reprice %q: %w", item.Name, err)
			}
			if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
				return fmt.Errorf("reprice %q: %w", item.Name, ErrInvalidPrice)
			}
			prices[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrRepricingFailed, err)
	}

	for i := range l.items {
		l.items[i].UnitPrice = prices[i]
	}
	l.currencyCode = code
	return nil
}

// Clear empties the ledger and resets discount and tax. The currency is kept.
func (l *Ledger) Clear() {
	l.items = nil
	l.discountPercentage = 0
	l.taxPercentage = 0
}

// Totals computes subtotal, discount, tax and grand total from the current state.
func (l *Ledger) Totals() Totals {
	var subtotal float64
	for _, item := range l.items {
		subtotal += item.LineTotal()
	}
	discount := subtotal * l.discountPercentage / 100
	taxable := subtotal - discount
	tax := taxable * l.taxPercentage / 100
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		GrandTotal:     taxable + tax,
	}
}

// Items returns a copy of the rows in insertion order.
func (l *Ledger) Items() []models.LineItem {
	out := make([]models.LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the row with the given id.
func (l *Ledger) Item(id string) (models.LineItem, bool) {
	if idx := l.indexByID(id); idx >= 0 {
		return l.items[idx], true
	}
	return models.LineItem{}, false
}

// Len reports the number of rows.
func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) CurrencyCode() string        { return l.currencyCode }
func (l *Ledger) DiscountPercentage() float64 { return l.discountPercentage }
func (l *Ledger) TaxPercentage() float64      { return l.taxPercentage }

func (l *Ledger) indexByName(name string) int {
	for i, item := range l.items {
		if strings.EqualFold(item.Name, name) {
			return i
		}
	}
	return -1
}

func (l *Ledger) indexByID(id string) int {
	for i, item := range l.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
