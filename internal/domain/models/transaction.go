package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidPaymentMethod is returned for payment methods the register does not accept.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// PaymentMethod enumerates how a customer settled a bill.
type PaymentMethod string

const (
	PaymentCreditCard    PaymentMethod = "credit_card"
	PaymentMobilePayment PaymentMethod = "mobile_payment"
	PaymentCash          PaymentMethod = "cash"
)

// ParsePaymentMethod validates a payment method identifier.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(value))); m {
	case PaymentCreditCard, PaymentMobilePayment, PaymentCash:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Label renders the method for humans, e.g. "credit card".
func (m PaymentMethod) Label() string {
	return strings.ReplaceAll(string(m), "_", " ")
}

// LineItem is one product row of a bill.
type LineItem struct {
	ID                string  `bson:"id" json:"id"`
	ProductID         string  `bson:"product_id" json:"product_id"`
	Name              string  `bson:"name" json:"name"`
	UnitPrice         float64 `bson:"unit_price" json:"unit_price"`
	Quantity          int     `bson:"quantity" json:"quantity"`
	OriginalUnitPrice float64 `bson:"original_unit_price" json:"original_unit_price"`
}

// LineTotal is the unrounded price of the row.
func (i LineItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// TransactionRecord is the immutable snapshot of a paid bill.
type TransactionRecord struct {
	ID                 string        `bson:"_id" json:"id"`
	Timestamp          time.Time     `bson:"timestamp" json:"timestamp"`
	Items              []LineItem    `bson:"items" json:"items"`
	Subtotal           float64       `bson:"subtotal" json:"subtotal"`
	DiscountPercentage float64       `bson:"discount_percentage" json:"discount_percentage"`
	DiscountAmount     float64       `bson:"discount_amount" json:"discount_amount"`
	TaxPercentage      float64       `bson:"tax_percentage" json:"tax_percentage"`
	TaxAmount          float64       `bson:"tax_amount" json:"tax_amount"`
	GrandTotal         float64       `bson:"grand_total" json:"grand_total"`
	CurrencyCode       string        `bson:"currency_code" json:"currency_code"`
	CurrencySymbol     string        `bson:"currency_symbol" json:"currency_symbol"`
	PaymentMethod      PaymentMethod `bson:"payment_method" json:"payment_method"`
	ReceiptImageRef    string        `bson:"receipt_image_ref,omitempty" json:"receipt_image_ref,omitempty"`
}
