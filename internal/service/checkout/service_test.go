package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const epsilon = 1e-9

type stubPricer struct {
	mu     sync.Mutex
	prices map[string]float64
	fail   map[string]error
	calls  int
}

func (p *stubPricer) EstimatePrice(_ context.Context, name, currencyCode string) (models.PriceQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.fail[name]; err != nil {
		return models.PriceQuote{}, err
	}
	price, ok := p.prices[name+"/"+currencyCode]
	if !ok {
		return models.PriceQuote{}, fmt.Errorf("no price for %s in %s", name, currencyCode)
	}
	return models.PriceQuote{Name: name, Price: price}, nil
}

type stubRecognizer struct {
	product models.IdentifiedProduct
	err     error
	known   []models.Product
}

func (r *stubRecognizer) IdentifyProduct(_ context.Context, _ models.Media, known []models.Product) (models.IdentifiedProduct, error) {
	r.known = known
	return r.product, r.err
}

type stubVoice struct {
	cmd models.VoiceCommand
	err error
}

func (v *stubVoice) InterpretVoice(context.Context, models.Media) (models.VoiceCommand, error) {
	return v.cmd, v.err
}

type stubAdvisor struct {
	calls int
	out   []string
}

func (a *stubAdvisor) SuggestCrossSell(context.Context, []models.LineItem) ([]string, error) {
	a.calls++
	return a.out, nil
}

type stubRenderer struct {
	ref     string
	err     error
	release chan struct{}
	drafts  chan models.ReceiptDraft
}

func (r *stubRenderer) RenderReceipt(_ context.Context, draft models.ReceiptDraft) (string, error) {
	if r.drafts != nil {
		r.drafts <- draft
	}
	if r.release != nil {
		<-r.release
	}
	return r.ref, r.err
}

type stubCatalog struct {
	err error
}

func (c stubCatalog) KnownProducts(context.Context) ([]models.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	return models.DefaultProducts(), nil
}

type stubHistory struct {
	mu      sync.Mutex
	records []models.TransactionRecord
	err     error
}

func (h *stubHistory) AppendRecord(_ context.Context, record models.TransactionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

type stubJournal struct {
	err error
}

func (j stubJournal) RecordSale(context.Context, models.TransactionRecord) error {
	return j.err
}

func newService(deps Dependencies) *Service {
	svc := NewService(Options{StoreName: "Corner Shop", AITimeout: time.Second}, deps, nil)
	svc.newID = func() string { return "tx-1" }
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC) }
	return svc
}

func addApplesAndBread(t *testing.T, svc *Service, register string) {
	t.Helper()
	_, err := svc.AddItem(context.Background(), register, AddItemInput{Name: "Apple", Price: 1, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), register, AddItemInput{Name: "Bread", Price: 3, Quantity: 1})
	require.NoError(t, err)
}

func TestManualBillTotals(t *testing.T) {
	svc := newService(Dependencies{})
	addApplesAndBread(t, svc, "lane-1")

	_, err := svc.ApplyDiscount("lane-1", 10)
	require.NoError(t, err)
	view, err := svc.ApplyTax("lane-1", 5)
	require.NoError(t, err)

	assert.Equal(t, ledger.StateBuilding, view.State)
	assert.InDelta(t, 4.725, view.Totals.GrandTotal, epsilon)
	assert.Equal(t, "$4.73", view.Formatted.GrandTotal)
	assert.Equal(t, "$0.50", view.Formatted.Discount)
	assert.Equal(t, 1.0, view.Items[0].OriginalUnitPrice)
}

func TestRegistersAreIndependent(t *testing.T) {
	svc := newService(Dependencies{})
	addApplesAndBread(t, svc, "lane-1")

	other, err := svc.View("lane-2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, 1, svc.sessions.Len())
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	svc := newService(Dependencies{})

	for _, register := range []string{"ghost-1", "ghost-2", "ghost-3"} {
		_, err := svc.View(register)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, svc.sessions.Len())

	view, err := svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: "Tea", Price: 2, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.sessions.Len())
	_, err = svc.RemoveItem("lane-1", view.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.sessions.Len())

	_, err = svc.ChangeCurrency(context.Background(), "lane-2", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.sessions.Len())
	view, err = svc.View("lane-2")
	require.NoError(t, err)
	assert.Equal(t, "EUR", view.CurrencyCode)
}

func TestAddItemValidation(t *testing.T) {
	svc := newService(Dependencies{})

	_, err := svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: " ", Price: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: "Milk", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.View(" ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddByName(t *testing.T) {
	pricer := &stubPricer{prices: map[string]float64{"Organic Milk/USD": 3.5}}
	svc := newService(Dependencies{Pricer: pricer})

	view, err := svc.AddByName(context.Background(), "lane-1", "Organic Milk", 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3.5, view.Items[0].UnitPrice)
	assert.Equal(t, 2, view.Items[0].Quantity)

	_, err = svc.AddByName(context.Background(), "lane-1", "Caviar", 1)
	require.ErrorIs(t, err, ErrCollaborator)
	view, err = svc.View("lane-1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestFeatureDisabled(t *testing.T) {
	svc := newService(Dependencies{})

	_, err := svc.AddByName(context.Background(), "lane-1", "Milk", 1)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	_, err = svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/png", Data: []byte{1}}, 1)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	_, err = svc.AddByVoice(context.Background(), "lane-1", models.Media{MimeType: "audio/webm", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrFeatureDisabled)
}

func TestAddByImageUsesCatalog(t *testing.T) {
	recognizer := &stubRecognizer{product: models.IdentifiedProduct{ProductID: "1004", Name: "Avocado", Price: 1.75, MatchedKnown: true}}
	svc := newService(Dependencies{Recognizer: recognizer, Catalog: stubCatalog{}})

	view, err := svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 3)
	require.NoError(t, err)

	assert.Len(t, recognizer.known, len(models.DefaultProducts()))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "1004", view.Items[0].ProductID)
	assert.InDelta(t, 5.25, view.Totals.Subtotal, epsilon)
}

func TestAddByImageRepricesInBillCurrency(t *testing.T) {
	recognizer := &stubRecognizer{product: models.IdentifiedProduct{ProductID: "1004", Name: "Avocado", Price: 1.75, MatchedKnown: true}}
	pricer := &stubPricer{prices: map[string]float64{"Avocado/JPY": 260}}
	svc := newService(Dependencies{Recognizer: recognizer, Pricer: pricer, Catalog: stubCatalog{}})

	_, err := svc.ChangeCurrency(context.Background(), "lane-1", "JPY")
	require.NoError(t, err)

	view, err := svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, pricer.calls)
	assert.Equal(t, "JPY", view.CurrencyCode)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "1004", view.Items[0].ProductID)
	assert.Equal(t, 260.0, view.Items[0].UnitPrice)
	assert.InDelta(t, 520, view.Totals.Subtotal, epsilon)
}

func TestAddByImageInForeignCurrencyNeedsPricing(t *testing.T) {
	recognizer := &stubRecognizer{product: models.IdentifiedProduct{Name: "Kombucha", Price: 4}}

	svc := newService(Dependencies{Recognizer: recognizer})
	_, err := svc.ChangeCurrency(context.Background(), "lane-1", "EUR")
	require.NoError(t, err)
	_, err = svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 1)
	require.ErrorIs(t, err, ErrFeatureDisabled)

	pricer := &stubPricer{fail: map[string]error{"Kombucha": errors.New("rate limited")}}
	svc = newService(Dependencies{Recognizer: recognizer, Pricer: pricer})
	_, err = svc.ChangeCurrency(context.Background(), "lane-1", "EUR")
	require.NoError(t, err)
	_, err = svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 1)
	require.ErrorIs(t, err, ErrCollaborator)

	view, err := svc.View("lane-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "EUR", view.CurrencyCode)
}

func TestAddByImageCatalogFailureIsWarning(t *testing.T) {
	recognizer := &stubRecognizer{product: models.IdentifiedProduct{Name: "Kombucha", Price: 4}}
	svc := newService(Dependencies{Recognizer: recognizer, Catalog: stubCatalog{err: errors.New("sheet offline")}})

	view, err := svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 1)
	require.NoError(t, err)

	assert.Nil(t, recognizer.known)
	require.Len(t, view.Warnings, 1)
	assert.Contains(t, view.Warnings[0], "sheet offline")

	again, err := svc.View("lane-1")
	require.NoError(t, err)
	assert.Empty(t, again.Warnings)
}

func TestAddByImageRecognizerFailure(t *testing.T) {
	svc := newService(Dependencies{Recognizer: &stubRecognizer{err: errors.New("blurry")}})

	_, err := svc.AddByImage(context.Background(), "lane-1", models.Media{MimeType: "image/jpeg", Data: []byte{1}}, 1)
	require.ErrorIs(t, err, ErrCollaborator)

	view, err := svc.View("lane-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAddByVoicePartialSuccess(t *testing.T) {
	pricer := &stubPricer{
		prices: map[string]float64{"Milk/USD": 3.5, "Bread/USD": 4.2},
		fail:   map[string]error{"Unicorn": errors.New("unknown product")},
	}
	voice := &stubVoice{cmd: models.VoiceCommand{
		Transcript: "two milk, a bread and a unicorn",
		Items: []models.VoiceItem{
			{ProductName: "Milk", Quantity: 2},
			{ProductName: "Unicorn", Quantity: 1},
			{ProductName: "Bread", Quantity: 1},
		},
	}}
	svc := newService(Dependencies{Pricer: pricer, Voice: voice})

	result, err := svc.AddByVoice(context.Background(), "lane-1", models.Media{MimeType: "audio/webm", Data: []byte{1}})
	require.NoError(t, err)

	assert.Equal(t, "two milk, a bread and a unicorn", result.Transcript)
	require.Len(t, result.Added, 2)
	assert.Equal(t, "Milk", result.Added[0].Name)
	assert.Equal(t, "Bread", result.Added[1].Name)
	assert.Equal(t, []string{"Unicorn"}, result.Skipped)
	assert.InDelta(t, 11.2, result.Bill.Totals.Subtotal, epsilon)
}

func TestChangeCurrencyAtomic(t *testing.T) {
	pricer := &stubPricer{
		prices: map[string]float64{"Apple/EUR": 0.9, "Bread/EUR": 2.8, "Apple/GBP": 0.8},
	}
	svc := newService(Dependencies{Pricer: pricer})
	addApplesAndBread(t, svc, "lane-1")

	_, err := svc.ChangeCurrency(context.Background(), "lane-1", "GBP")
	require.ErrorIs(t, err, ledger.ErrRepricingFailed)
	view, err := svc.View("lane-1")
	require.NoError(t, err)
	assert.Equal(t, "USD", view.CurrencyCode)
	assert.Equal(t, 1.0, view.Items[0].UnitPrice)

	view, err = svc.ChangeCurrency(context.Background(), "lane-1", "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", view.CurrencyCode)
	assert.Equal(t, "€", view.CurrencySymbol)
	assert.InDelta(t, 4.6, view.Totals.Subtotal, epsilon)
	assert.Equal(t, 1.0, view.Items[0].OriginalUnitPrice)

	_, err = svc.ChangeCurrency(context.Background(), "lane-1", "XYZ")
	require.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestChangeCurrencyEmptyBillWithoutPricer(t *testing.T) {
	svc := newService(Dependencies{})

	view, err := svc.ChangeCurrency(context.Background(), "lane-1", "JPY")
	require.NoError(t, err)
	assert.Equal(t, "JPY", view.CurrencyCode)

	_, err = svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: "Tea", Price: 300, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ChangeCurrency(context.Background(), "lane-1", "USD")
	require.ErrorIs(t, err, ErrFeatureDisabled)
}

func TestSuggestions(t *testing.T) {
	advisor := &stubAdvisor{out: []string{"Butter"}}
	svc := newService(Dependencies{Advisor: advisor})

	got, err := svc.Suggestions(context.Background(), "lane-1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, advisor.calls)

	addApplesAndBread(t, svc, "lane-1")
	got, err = svc.Suggestions(context.Background(), "lane-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Butter"}, got)
	assert.Equal(t, 1, advisor.calls)
}

func TestFinalizeRendersReceiptInBackground(t *testing.T) {
	renderer := &stubRenderer{ref: "data:image/png;base64,AAAA", drafts: make(chan models.ReceiptDraft, 1)}
	svc := newService(Dependencies{Renderer: renderer})
	addApplesAndBread(t, svc, "lane-1")

	view, err := svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StateFinalized, view.State)

	draft := <-renderer.drafts
	assert.Equal(t, "Corner Shop", draft.StoreName)
	assert.Equal(t, "03/09/2024", draft.Date)
	assert.InDelta(t, 5, draft.Subtotal, epsilon)

	require.Eventually(t, func() bool {
		v, err := svc.View("lane-1")
		return err == nil && v.ReceiptImageRef == renderer.ref
	}, time.Second, 10*time.Millisecond)

	_, err = svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: "Milk", Price: 2, Quantity: 1})
	require.ErrorIs(t, err, ledger.ErrNotEditable)
}

func TestFinalizeEmptyBill(t *testing.T) {
	svc := newService(Dependencies{})

	_, err := svc.Finalize(context.Background(), "lane-1")
	require.ErrorIs(t, err, ledger.ErrEmptyTransaction)
}

func TestReceiptFailureBecomesWarning(t *testing.T) {
	svc := newService(Dependencies{Renderer: &stubRenderer{err: errors.New("image model down")}})
	addApplesAndBread(t, svc, "lane-1")

	_, err := svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)
	svc.Wait()

	view, err := svc.View("lane-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StateFinalized, view.State)
	assert.Empty(t, view.ReceiptImageRef)
	require.Len(t, view.Warnings, 1)
	assert.Contains(t, view.Warnings[0], "image model down")
}

func TestCancelDiscardsPendingReceipt(t *testing.T) {
	renderer := &stubRenderer{ref: "late", release: make(chan struct{})}
	svc := newService(Dependencies{Renderer: renderer})
	addApplesAndBread(t, svc, "lane-1")

	_, err := svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)
	view, err := svc.Cancel("lane-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StateBuilding, view.State)
	assert.Len(t, view.Items, 2)

	close(renderer.release)
	svc.Wait()

	view, err = svc.View("lane-1")
	require.NoError(t, err)
	assert.Empty(t, view.ReceiptImageRef)
}

func TestPayRecordsAndResets(t *testing.T) {
	history := &stubHistory{}
	svc := newService(Dependencies{History: history, Journal: stubJournal{}})
	addApplesAndBread(t, svc, "lane-1")
	_, err := svc.ApplyDiscount("lane-1", 10)
	require.NoError(t, err)
	_, err = svc.ApplyTax("lane-1", 5)
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "lane-1", "cash")
	require.ErrorIs(t, err, ledger.ErrInvalidTransition)

	_, err = svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "lane-1", "bitcoin")
	require.ErrorIs(t, err, models.ErrInvalidPaymentMethod)

	result, err := svc.Pay(context.Background(), "lane-1", "credit_card")
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	assert.Equal(t, "tx-1", result.Record.ID)
	assert.InDelta(t, 4.725, result.Record.GrandTotal, epsilon)
	assert.Equal(t, models.PaymentCreditCard, result.Record.PaymentMethod)
	assert.Equal(t, ledger.StateBuilding, result.Bill.State)
	assert.Empty(t, result.Bill.Items)
	require.Len(t, history.records, 1)
	assert.Len(t, history.records[0].Items, 2)
}

func TestPaySucceedsWhenPersistenceFails(t *testing.T) {
	history := &stubHistory{err: errors.New("disk full")}
	svc := newService(Dependencies{History: history, Journal: stubJournal{err: errors.New("sheet quota")}})
	addApplesAndBread(t, svc, "lane-1")
	_, err := svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)

	result, err := svc.Pay(context.Background(), "lane-1", "mobile_payment")
	require.NoError(t, err)

	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "disk full")
	assert.Contains(t, result.Warnings[1], "sheet quota")
	assert.Empty(t, result.Bill.Items)
}

func TestRecordIndependentOfLaterMutation(t *testing.T) {
	history := &stubHistory{}
	svc := newService(Dependencies{History: history})
	addApplesAndBread(t, svc, "lane-1")
	_, err := svc.Finalize(context.Background(), "lane-1")
	require.NoError(t, err)
	result, err := svc.Pay(context.Background(), "lane-1", "cash")
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "lane-1", AddItemInput{Name: "Apple", Price: 9, Quantity: 5})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Record.Items[0].Quantity)
	assert.Equal(t, 1.0, history.records[0].Items[0].UnitPrice)
}
