package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// EmptyHistoryNarrative is returned instead of a generated narrative when nothing has been sold yet.
const EmptyHistoryNarrative = "No sales data found. Complete a sale to see your analytics."

const digestTopProducts = 3

// ErrNarratorUnavailable is reported when no narrative backend is configured.
var ErrNarratorUnavailable = errors.New("sales narrator not configured")

// HistoryStore is the read side of the transaction history.
type HistoryStore interface {
	ListRecords(ctx context.Context) ([]models.TransactionRecord, error)
	ClearHistory(ctx context.Context) error
}

// Narrator turns a computed summary into a short natural-language analysis.
type Narrator interface {
	NarrateSales(ctx context.Context, currencyCode string, summary models.SalesSummary) (string, error)
}

// Service exposes sales analytics over the transaction history.
type Service struct {
	history  HistoryStore
	narrator Narrator
	cache    *NarrativeCache
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. narrator and cache may be nil.
func NewService(history HistoryStore, narrator Narrator, cache *NarrativeCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{history: history, narrator: narrator, cache: cache, logger: logger}
}

// Analyze summarises the whole history and attaches a narrative. Narration failures
// degrade to a warning; only a history read failure is returned as an error.
func (s *Service) Analyze(ctx context.Context) (models.SalesAnalysis, error) {
	records, err := s.history.ListRecords(ctx)
	if err != nil {
		return models.SalesAnalysis{}, fmt.Errorf("load history: %w", err)
	}

	code := primaryCurrency(records)
	analysis := models.SalesAnalysis{
		Summary:        Summarize(records),
		CurrencyCode:   code,
		CurrencySymbol: models.CurrencySymbol(code),
	}
	if len(records) == 0 {
		analysis.Narrative = EmptyHistoryNarrative
		return analysis, nil
	}

	narrative, err := s.narrate(ctx, code, analysis.Summary)
	if err != nil {
		s.logger.Warn("sales narrative unavailable", zap.Error(err))
		analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("AI summary unavailable: %v", err))
		return analysis, nil
	}
	analysis.Narrative = narrative
	return analysis, nil
}

func (s *Service) narrate(ctx context.Context, code string, summary models.SalesSummary) (string, error) {
	if s.narrator == nil {
		return "", ErrNarratorUnavailable
	}

	key, err := narrativeKey(code, summary)
	if err != nil {
		return "", err
	}
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Debug("narrative cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	narrative, err := s.narrator.NarrateSales(ctx, code, summary)
	if err != nil {
		return "", fmt.Errorf("narrate sales: %w", err)
	}
	if err := s.cache.Set(ctx, key, narrative); err != nil {
		s.logger.Debug("narrative cache write failed", zap.Error(err))
	}
	return narrative, nil
}

// DailyDigest renders a plain-text digest of the sales made on the calendar day of day,
// evaluated in day's location.
func (s *Service) DailyDigest(ctx context.Context, day time.Time) (string, error) {
	records, err := s.history.ListRecords(ctx)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	date := day.Format(dateLayout)
	var sameDay []models.TransactionRecord
	for _, record := range records {
		if record.Timestamp.In(day.Location()).Format(dateLayout) == date {
			sameDay = append(sameDay, record)
		}
	}

	if len(sameDay) == 0 {
		return fmt.Sprintf("Sales digest %s: no sales recorded.", date), nil
	}

	summary := Summarize(sameDay)
	symbol := models.CurrencySymbol(primaryCurrency(sameDay))

	var b strings.Builder
	fmt.Fprintf(&b, "Sales digest %s\n", date)
	fmt.Fprintf(&b, "Revenue: %s\n", ledger.FormatAmount(symbol, summary.TotalRevenue))
	fmt.Fprintf(&b, "Bills: %d\n", summary.TotalBills)
	fmt.Fprintf(&b, "Average bill: %s", ledger.FormatAmount(symbol, summary.AverageBillValue))

	top := summary.TopProducts
	if len(top) > digestTopProducts {
		top = top[:digestTopProducts]
	}
	if len(top) > 0 {
		b.WriteString("\nTop products:")
		for i, product := range top {
			fmt.Fprintf(&b, "\n%d. %s x%d (%s)", i+1, product.Name, product.QuantitySold, ledger.FormatAmount(symbol, product.RevenueGenerated))
		}
	}
	return b.String(), nil
}

// History returns every recorded transaction, oldest first.
func (s *Service) History(ctx context.Context) ([]models.TransactionRecord, error) {
	records, err := s.history.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}
	return records, nil
}

// ClearHistory drops the whole transaction history.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.history.ClearHistory(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info("transaction history cleared")
	return nil
}

// primaryCurrency picks the currency of the first record, as the dashboard shows it.
func primaryCurrency(records []models.TransactionRecord) string {
	if len(records) == 0 {
		return models.DefaultCurrencyCode
	}
	if code := records[0].CurrencyCode; code != "" {
		return code
	}
	return models.CurrencyCode(records[0].CurrencySymbol)
}
