package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const (
	receiptDateLayout   = "01/02/2006"
	voicePricingWorkers = 4
)

var (
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedCurrency is returned for currency codes outside the supported list.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrCollaborator wraps failures of the AI backends.
	ErrCollaborator = errors.New("ai collaborator failed")
	// ErrFeatureDisabled is returned when the backend an operation needs is not configured.
	ErrFeatureDisabled = errors.New("feature not configured")
)

// Dependencies bundles the collaborators. Any of them may be nil; the operations that
// need a missing one return ErrFeatureDisabled.
type Dependencies struct {
	Recognizer ProductRecognizer
	Pricer     PriceEstimator
	Advisor    CrossSellAdvisor
	Voice      VoiceInterpreter
	Renderer   ReceiptRenderer
	Catalog    Catalog
	History    HistoryWriter
	Journal    Journal
}

// Options configures the checkout service.
type Options struct {
	StoreName       string
	DefaultCurrency string
	AITimeout       time.Duration
}

// Service runs the billing workflow of every register.
type Service struct {
	sessions *SessionManager
	deps     Dependencies
	opts     Options
	renders  sync.WaitGroup
	newID    func() string
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires a checkout service.
func NewService(opts Options, deps Dependencies, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = models.DefaultCurrencyCode
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 30 * time.Second
	}
	return &Service{
		sessions: NewSessionManager(opts.DefaultCurrency),
		deps:     deps,
		opts:     opts,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logger,
	}
}

// FormattedTotals are the totals rounded for display.
type FormattedTotals struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	Tax        string `json:"tax"`
	GrandTotal string `json:"grand_total"`
}

// BillView is a read model of a register's open bill.
type BillView struct {
	RegisterID         string            `json:"register_id"`
	State              ledger.State      `json:"state"`
	CurrencyCode       string            `json:"currency_code"`
	CurrencySymbol     string            `json:"currency_symbol"`
	Items              []models.LineItem `json:"items"`
	DiscountPercentage float64           `json:"discount_percentage"`
	TaxPercentage      float64           `json:"tax_percentage"`
	Totals             ledger.Totals     `json:"totals"`
	Formatted          FormattedTotals   `json:"formatted"`
	ReceiptImageRef    string            `json:"receipt_image_ref,omitempty"`
	Warnings           []string          `json:"warnings,omitempty"`
}

// AddItemInput is a manual line entry.
type AddItemInput struct {
	Name          string
	Price         float64
	Quantity      int
	OriginalPrice float64
}

// VoiceResult reports what a spoken order added.
type VoiceResult struct {
	Transcript string            `json:"transcript"`
	Added      []models.LineItem `json:"added"`
	Skipped    []string          `json:"skipped"`
	Bill       BillView          `json:"bill"`
}

// PaymentResult is the outcome of a confirmed payment.
type PaymentResult struct {
	Record   models.TransactionRecord `json:"record"`
	Bill     BillView                 `json:"bill"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// View returns the bill and drains its pending warnings.
func (s *Service) View(registerID string) (BillView, error) {
	sess, err := s.acquire(registerID)
	if err != nil {
		return BillView{}, err
	}
	defer s.release(sess)
	return s.view(registerID, sess), nil
}

// AddItem adds a manually entered line.
func (s *Service) AddItem(_ context.Context, registerID string, in AddItemInput) (BillView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return BillView{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !validAmount(in.Price) || !validAmount(in.OriginalPrice) {
		return BillView{}, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}
	if in.OriginalPrice == 0 {
		in.OriginalPrice = in.Price
	}

	return s.mutate(registerID, func(sess *Session) error {
		_, err := sess.tx.AddItem(name, in.Price, in.Quantity, in.OriginalPrice)
		return err
	})
}

// AddByName prices the product in the bill currency and adds it.
func (s *Service) AddByName(ctx context.Context, registerID, name string, quantity int) (BillView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return BillView{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if s.deps.Pricer == nil {
		return BillView{}, fmt.Errorf("%w: price estimation", ErrFeatureDisabled)
	}

	return s.mutate(registerID, func(sess *Session) error {
		if err := ensureBuilding(sess); err != nil {
			return err
		}
		quote, err := s.estimate(ctx, name, sess.tx.CurrencyCode())
		if err != nil {
			return err
		}
		_, err = sess.tx.AddItem(quote.Name, quote.Price, quantity, quote.Price)
		return err
	})
}

// AddByImage identifies the product on the photo and adds it.
func (s *Service) AddByImage(ctx context.Context, registerID string, image models.Media, quantity int) (BillView, error) {
	if len(image.Data) == 0 {
		return BillView{}, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	if s.deps.Recognizer == nil {
		return BillView{}, fmt.Errorf("%w: product recognition", ErrFeatureDisabled)
	}

	return s.mutate(registerID, func(sess *Session) error {
		if err := ensureBuilding(sess); err != nil {
			return err
		}
		// recognition quotes prices in the default currency
		code := sess.tx.CurrencyCode()
		reprice := code != models.DefaultCurrencyCode
		if reprice && s.deps.Pricer == nil {
			return fmt.Errorf("%w: pricing in %s", ErrFeatureDisabled, code)
		}

		known := s.knownProducts(ctx, sess)

		callCtx, cancel := context.WithTimeout(ctx, s.opts.AITimeout)
		defer cancel()
		product, err := s.deps.Recognizer.IdentifyProduct(callCtx, image, known)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCollaborator, err)
		}

		s.logger.Debug("product identified",
			zap.String("name", product.Name),
			zap.Bool("matched_known", product.MatchedKnown),
		)
		price := product.Price
		if reprice {
			quote, err := s.estimate(ctx, product.Name, code)
			if err != nil {
				return err
			}
			price = quote.Price
		}
		_, err = sess.tx.AddProduct(product.ProductID, product.Name, price, quantity, price)
		return err
	})
}

func (s *Service) knownProducts(ctx context.Context, sess *Session) []models.Product {
	if s.deps.Catalog == nil {
		return nil
	}
	known, err := s.deps.Catalog.KnownProducts(ctx)
	if err != nil {
		s.logger.Warn("catalog unavailable, identifying without known products", zap.Error(err))
		sess.warn(fmt.Sprintf("catalog unavailable: %v", err))
		return nil
	}
	return known
}

// AddByVoice interprets a spoken order, prices every item concurrently and adds the ones that priced.
func (s *Service) AddByVoice(ctx context.Context, registerID string, audio models.Media) (VoiceResult, error) {
	if len(audio.Data) == 0 {
		return VoiceResult{}, fmt.Errorf("%w: audio is required", ErrInvalidInput)
	}
	if s.deps.Voice == nil || s.deps.Pricer == nil {
		return VoiceResult{}, fmt.Errorf("%w: voice ordering", ErrFeatureDisabled)
	}

	sess, err := s.acquire(registerID)
	if err != nil {
		return VoiceResult{}, err
	}
	defer s.release(sess)

	if err := ensureBuilding(sess); err != nil {
		return VoiceResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.AITimeout)
	defer cancel()
	cmd, err := s.deps.Voice.InterpretVoice(callCtx, audio)
	if err != nil {
		return VoiceResult{}, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}

	result := VoiceResult{Transcript: cmd.Transcript, Added: []models.LineItem{}, Skipped: []string{}}
	quotes := s.priceAll(ctx, cmd.Items, sess.tx.CurrencyCode())

	for i, item := range cmd.Items {
		quote := quotes[i]
		if quote == nil {
			result.Skipped = append(result.Skipped, item.ProductName)
			continue
		}
		line, err := sess.tx.AddItem(quote.Name, quote.Price, item.Quantity, quote.Price)
		if err != nil {
			return VoiceResult{}, err
		}
		result.Added = append(result.Added, line)
	}

	result.Bill = s.view(registerID, sess)
	return result, nil
}

// priceAll prices the items concurrently; a failed item leaves a nil slot.
func (s *Service) priceAll(ctx context.Context, items []models.VoiceItem, currencyCode string) []*models.PriceQuote {
	quotes := make([]*models.PriceQuote, len(items))

	var g errgroup.Group
	g.SetLimit(voicePricingWorkers)
	for i, item := range items {
		g.Go(func() error {
			quote, err := s.estimate(ctx, item.ProductName, currencyCode)
			if err != nil {
				s.logger.Warn("could not price voice item", zap.String("product", item.ProductName), zap.Error(err))
				return nil
			}
			quotes[i] = &quote
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

func (s *Service) estimate(ctx context.Context, name, currencyCode string) (models.PriceQuote, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.AITimeout)
	defer cancel()

	quote, err := s.deps.Pricer.EstimatePrice(callCtx, name, currencyCode)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}
	if !validAmount(quote.Price) {
		return models.PriceQuote{}, fmt.Errorf("%w: invalid price %v for %q", ErrCollaborator, quote.Price, name)
	}
	if strings.TrimSpace(quote.Name) == "" {
		quote.Name = name
	}
	return quote, nil
}

// RemoveItem drops a line. Unknown ids are ignored.
func (s *Service) RemoveItem(registerID, itemID string) (BillView, error) {
	return s.mutate(registerID, func(sess *Session) error {
		_, err := sess.tx.RemoveItem(itemID)
		return err
	})
}

// SetQuantity changes the quantity of a line; zero or less removes it.
func (s *Service) SetQuantity(registerID, itemID string, quantity int) (BillView, error) {
	return s.mutate(registerID, func(sess *Session) error {
		_, err := sess.tx.SetQuantity(itemID, quantity)
		return err
	})
}

// ApplyDiscount sets the discount percentage.
func (s *Service) ApplyDiscount(registerID string, percentage float64) (BillView, error) {
	return s.mutate(registerID, func(sess *Session) error {
		_, err := sess.tx.ApplyDiscount(percentage)
		return err
	})
}

// ApplyTax sets the tax percentage.
func (s *Service) ApplyTax(registerID string, percentage float64) (BillView, error) {
	return s.mutate(registerID, func(sess *Session) error {
		_, err := sess.tx.ApplyTax(percentage)
		return err
	})
}

// ChangeCurrency reprices every line in the new currency, all or nothing.
func (s *Service) ChangeCurrency(ctx context.Context, registerID, code string) (BillView, error) {
	currency, ok := models.LookupCurrency(code)
	if !ok {
		return BillView{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}

	return s.mutate(registerID, func(sess *Session) error {
		var reprice ledger.RepriceFunc
		if s.deps.Pricer != nil {
			reprice = func(ctx context.Context, name, currencyCode string) (float64, error) {
				quote, err := s.estimate(ctx, name, currencyCode)
				return quote.Price, err
			}
		} else if len(sess.tx.Items()) > 0 && sess.tx.CurrencyCode() != currency.Code {
			return fmt.Errorf("%w: repricing", ErrFeatureDisabled)
		}

		if err := sess.tx.ChangeCurrency(ctx, currency.Code, reprice); err != nil {
			return err
		}
		s.logger.Info("currency changed", zap.String("register", registerID), zap.String("currency", currency.Code))
		return nil
	})
}

// Suggestions returns advisory cross-sell products for the current cart.
func (s *Service) Suggestions(ctx context.Context, registerID string) ([]string, error) {
	sess, err := s.acquire(registerID)
	if err != nil {
		return nil, err
	}
	items := sess.tx.Items()
	s.release(sess)

	if len(items) == 0 {
		return []string{}, nil
	}
	if s.deps.Advisor == nil {
		return nil, fmt.Errorf("%w: cross-sell suggestions", ErrFeatureDisabled)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.AITimeout)
	defer cancel()
	suggestions, err := s.deps.Advisor.SuggestCrossSell(callCtx, items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}

// Finalize locks the bill for payment and renders the receipt in the background.
func (s *Service) Finalize(_ context.Context, registerID string) (BillView, error) {
	sess, err := s.acquire(registerID)
	if err != nil {
		return BillView{}, err
	}
	defer s.release(sess)

	if err := sess.tx.Finalize(); err != nil {
		return BillView{}, err
	}
	sess.renderSeq++

	if s.deps.Renderer != nil {
		s.renderReceipt(registerID, sess, sess.renderSeq, s.receiptDraft(sess))
	}

	s.logger.Info("bill finalized", zap.String("register", registerID), zap.Int("items", len(sess.tx.Items())))
	return s.view(registerID, sess), nil
}

func (s *Service) receiptDraft(sess *Session) models.ReceiptDraft {
	totals := sess.tx.Totals()
	return models.ReceiptDraft{
		StoreName:          s.opts.StoreName,
		Date:               s.now().Format(receiptDateLayout),
		CurrencySymbol:     models.CurrencySymbol(sess.tx.CurrencyCode()),
		Items:              sess.tx.Items(),
		Subtotal:           totals.Subtotal,
		DiscountPercentage: sess.tx.DiscountPercentage(),
		DiscountAmount:     totals.DiscountAmount,
		TaxPercentage:      sess.tx.TaxPercentage(),
		TaxAmount:          totals.TaxAmount,
		GrandTotal:         totals.GrandTotal,
	}
}

// renderReceipt attaches the image only if the bill is still the one that was finalized.
func (s *Service) renderReceipt(registerID string, sess *Session, seq uint64, draft models.ReceiptDraft) {
	s.renders.Add(1)
	go func() {
		defer s.renders.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.AITimeout)
		defer cancel()
		ref, err := s.deps.Renderer.RenderReceipt(ctx, draft)

		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.renderSeq != seq || sess.tx.State() != ledger.StateFinalized {
			s.logger.Debug("discarding stale receipt render", zap.String("register", registerID))
			return
		}
		if err != nil {
			s.logger.Warn("receipt rendering failed", zap.String("register", registerID), zap.Error(err))
			sess.warn(fmt.Sprintf("receipt image unavailable: %v", err))
			return
		}
		if err := sess.tx.AttachReceipt(ref); err != nil {
			s.logger.Warn("could not attach receipt", zap.Error(err))
		}
	}()
}

// Cancel returns a finalized bill to editing with its items.
func (s *Service) Cancel(registerID string) (BillView, error) {
	return s.mutate(registerID, func(sess *Session) error {
		if err := sess.tx.Cancel(); err != nil {
			return err
		}
		sess.renderSeq++
		return nil
	})
}

// Pay confirms the payment, records the transaction and opens a fresh bill.
// Persistence failures are reported as warnings; the payment stands.
func (s *Service) Pay(ctx context.Context, registerID, method string) (PaymentResult, error) {
	paymentMethod, err := models.ParsePaymentMethod(method)
	if err != nil {
		return PaymentResult{}, err
	}
	sess, err := s.acquire(registerID)
	if err != nil {
		return PaymentResult{}, err
	}
	defer s.release(sess)

	record, err := sess.tx.Pay(paymentMethod, s.newID(), s.now())
	if err != nil {
		return PaymentResult{}, err
	}
	sess.renderSeq++

	result := PaymentResult{Record: record}
	if s.deps.History != nil {
		if err := s.deps.History.AppendRecord(ctx, record); err != nil {
			s.logger.Error("failed to save transaction history", zap.String("transaction_id", record.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("transaction not saved to history: %v", err))
		}
	}
	if s.deps.Journal != nil {
		if err := s.deps.Journal.RecordSale(ctx, record); err != nil {
			s.logger.Warn("failed to export sale to journal", zap.String("transaction_id", record.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("sale not exported to journal: %v", err))
		}
	}

	s.logger.Info("payment confirmed",
		zap.String("register", registerID),
		zap.String("transaction_id", record.ID),
		zap.String("method", string(record.PaymentMethod)),
		zap.Float64("grand_total", ledger.RoundAmount(record.GrandTotal)),
		zap.String("currency", record.CurrencyCode),
	)

	result.Bill = s.view(registerID, sess)
	return result, nil
}

// Wait blocks until background receipt renders have finished.
func (s *Service) Wait() {
	s.renders.Wait()
}

// acquire returns the locked session of a register. Callers must hand it back through release.
func (s *Service) acquire(registerID string) (*Session, error) {
	registerID = strings.TrimSpace(registerID)
	if registerID == "" {
		return nil, fmt.Errorf("%w: register id is required", ErrInvalidInput)
	}
	for {
		sess := s.sessions.GetSession(registerID)
		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// release unlocks the session and evicts it when it holds nothing worth keeping.
func (s *Service) release(sess *Session) {
	if sess.idle(s.opts.DefaultCurrency) {
		sess.closed = true
		s.sessions.ClearSession(sess.id)
	}
	sess.mu.Unlock()
}

func (s *Service) mutate(registerID string, fn func(sess *Session) error) (BillView, error) {
	sess, err := s.acquire(registerID)
	if err != nil {
		return BillView{}, err
	}
	defer s.release(sess)

	if err := fn(sess); err != nil {
		return BillView{}, err
	}
	return s.view(registerID, sess), nil
}

func (s *Service) view(registerID string, sess *Session) BillView {
	tx := sess.tx
	totals := tx.Totals()
	symbol := models.CurrencySymbol(tx.CurrencyCode())

	return BillView{
		RegisterID:         registerID,
		State:              tx.State(),
		CurrencyCode:       tx.CurrencyCode(),
		CurrencySymbol:     symbol,
		Items:              tx.Items(),
		DiscountPercentage: tx.DiscountPercentage(),
		TaxPercentage:      tx.TaxPercentage(),
		Totals:             totals,
		Formatted: FormattedTotals{
			Subtotal:   ledger.FormatAmount(symbol, totals.Subtotal),
			Discount:   ledger.FormatAmount(symbol, totals.DiscountAmount),
			Tax:        ledger.FormatAmount(symbol, totals.TaxAmount),
			GrandTotal: ledger.FormatAmount(symbol, totals.GrandTotal),
		},
		ReceiptImageRef: tx.ReceiptRef(),
		Warnings:        sess.drainWarnings(),
	}
}

func ensureBuilding(sess *Session) error {
	if state := sess.tx.State(); state != ledger.StateBuilding {
		return fmt.Errorf("%w: bill is %s", ledger.ErrNotEditable, state)
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
