package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// SalesRange receives one journal row per paid transaction.
const SalesRange = "Sales!A:J"

// SalesJournal exports paid transactions to the spreadsheet for bookkeeping.
type SalesJournal struct {
	repo Repository
}

// NewSalesJournal wires a journal on top of the sheet repository.
func NewSalesJournal(repo Repository) *SalesJournal {
	return &SalesJournal{repo: repo}
}

// RecordSale appends the transaction as a single row.
func (j *SalesJournal) RecordSale(ctx context.Context, record models.TransactionRecord) error {
	if err := j.repo.AppendRows(ctx, SalesRange, [][]interface{}{journalRow(record)}); err != nil {
		return fmt.Errorf("record sale %s: %w", record.ID, err)
	}
	return nil
}

func journalRow(record models.TransactionRecord) []interface{} {
	items := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}

	return []interface{}{
		record.ID,
		record.Timestamp.UTC().Format(time.RFC3339),
		record.CurrencyCode,
		strings.Join(items, "; "),
		ledger.RoundAmount(record.Subtotal),
		ledger.RoundAmount(record.DiscountAmount),
		ledger.RoundAmount(record.TaxAmount),
		ledger.RoundAmount(record.GrandTotal),
		record.PaymentMethod.Label(),
		record.ReceiptImageRef != "",
	}
}
