package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

var (
	// ErrNotEditable is returned when the bill is mutated outside the building stage.
	ErrNotEditable = errors.New("transaction is not editable")
	// ErrEmptyTransaction is returned when finalizing a bill without items.
	ErrEmptyTransaction = errors.New("transaction has no items")
	// ErrInvalidTransition is returned for lifecycle moves the state machine forbids.
	ErrInvalidTransition = errors.New("invalid transaction state transition")
)

// State is the lifecycle stage of a transaction.
type State int

const (
	// StateBuilding accepts item, discount, tax and currency changes.
	StateBuilding State = iota
	// StateFinalized waits for a payment method or a cancellation.
	StateFinalized
	// StatePaid is transient; the transaction is snapshotted and reset to building.
	StatePaid
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFinalized:
		return "finalized"
	case StatePaid:
		return "paid"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

var transitions = map[State][]State{
	StateBuilding:  {StateFinalized},
	StateFinalized: {StateBuilding, StatePaid},
	StatePaid:      {StateBuilding},
}

// Transaction gates ledger mutations by lifecycle state.
type Transaction struct {
	ledger     *Ledger
	state      State
	receiptRef string
}

// NewTransaction starts a transaction in the building state.
func NewTransaction(currencyCode string) *Transaction {
	return &Transaction{ledger: New(currencyCode), state: StateBuilding}
}

func (t *Transaction) State() State                { return t.state }
func (t *Transaction) Items() []models.LineItem    { return t.ledger.Items() }
func (t *Transaction) Totals() Totals              { return t.ledger.Totals() }
func (t *Transaction) CurrencyCode() string        { return t.ledger.CurrencyCode() }
func (t *Transaction) DiscountPercentage() float64 { return t.ledger.DiscountPercentage() }
func (t *Transaction) TaxPercentage() float64      { return t.ledger.TaxPercentage() }
func (t *Transaction) ReceiptRef() string          { return t.receiptRef }

func (t *Transaction) Item(id string) (models.LineItem, bool) { return t.ledger.Item(id) }

// AddItem adds or merges a row.
func (t *Transaction) AddItem(name string, unitPrice float64, quantity int, originalPrice float64) (models.LineItem, error) {
	return t.AddProduct("", name, unitPrice, quantity, originalPrice)
}

// AddProduct adds or merges a row that came from the catalog.
func (t *Transaction) AddProduct(productID, name string, unitPrice float64, quantity int, originalPrice float64) (models.LineItem, error) {
	if err := t.ensureEditable(); err != nil {
		return models.LineItem{}, err
	}
	return t.ledger.AddProduct(productID, name, unitPrice, quantity, originalPrice), nil
}

func (t *Transaction) RemoveItem(id string) (Totals, error) {
	if err := t.ensureEditable(); err != nil {
		return Totals{}, err
	}
	return t.ledger.RemoveItem(id), nil
}

func (t *Transaction) SetQuantity(id string, quantity int) (Totals, error) {
	if err := t.ensureEditable(); err != nil {
		return Totals{}, err
	}
	return t.ledger.SetQuantity(id, quantity), nil
}

func (t *Transaction) ApplyDiscount(percentage float64) (Totals, error) {
	if err := t.ensureEditable(); err != nil {
		return Totals{}, err
	}
	return t.ledger.ApplyDiscount(percentage), nil
}

func (t *Transaction) ApplyTax(percentage float64) (Totals, error) {
	if err := t.ensureEditable(); err != nil {
		return Totals{}, err
	}
	return t.ledger.ApplyTax(percentage), nil
}

func (t *Transaction) ChangeCurrency(ctx context.Context, code string, reprice RepriceFunc) error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	return t.ledger.ChangeCurrency(ctx, code, reprice)
}

// Finalize locks the bill for payment.
func (t *Transaction) Finalize() error {
	if t.state == StateBuilding && t.ledger.Len() == 0 {
		return ErrEmptyTransaction
	}
	return t.transition(StateFinalized)
}

// Cancel returns a finalized bill to building with its items intact.
func (t *Transaction) Cancel() error {
	if t.state != StateFinalized {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, t.state)
	}
	t.receiptRef = ""
	return t.transition(StateBuilding)
}

// AttachReceipt records the rendered receipt of a finalized bill.
func (t *Transaction) AttachReceipt(ref string) error {
	if t.state != StateFinalized {
		return fmt.Errorf("%w: attach receipt while %s", ErrInvalidTransition, t.state)
	}
	t.receiptRef = ref
	return nil
}

// Pay snapshots the finalized bill into a record, clears the ledger and starts a new cycle.
func (t *Transaction) Pay(method models.PaymentMethod, id string, now time.Time) (models.TransactionRecord, error) {
	if _, err := models.ParsePaymentMethod(string(method)); err != nil {
		return models.TransactionRecord{}, err
	}
	if err := t.transition(StatePaid); err != nil {
		return models.TransactionRecord{}, err
	}

	totals := t.ledger.Totals()
	code := t.ledger.CurrencyCode()
	record := models.TransactionRecord{
		ID:                 id,
		Timestamp:          now.UTC(),
		Items:              t.ledger.Items(),
		Subtotal:           totals.Subtotal,
		DiscountPercentage: t.ledger.DiscountPercentage(),
		DiscountAmount:     totals.DiscountAmount,
		TaxPercentage:      t.ledger.TaxPercentage(),
		TaxAmount:          totals.TaxAmount,
		GrandTotal:         totals.GrandTotal,
		CurrencyCode:       code,
		CurrencySymbol:     models.CurrencySymbol(code),
		PaymentMethod:      method,
		ReceiptImageRef:    t.receiptRef,
	}

	t.ledger.Clear()
	t.receiptRef = ""
	if err := t.transition(StateBuilding); err != nil {
		return models.TransactionRecord{}, err
	}
	return record, nil
}

func (t *Transaction) ensureEditable() error {
	if t.state != StateBuilding {
		return fmt.Errorf("%w: bill is %s", ErrNotEditable, t.state)
	}
	return nil
}

func (t *Transaction) transition(to State) error {
	for _, allowed := range transitions[t.state] {
		if allowed == to {
			t.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.state, to)
}
