package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

func record(id string, at time.Time, total float64, items ...models.LineItem) models.TransactionRecord {
	return models.TransactionRecord{
		ID:             id,
		Timestamp:      at,
		Items:          items,
		GrandTotal:     total,
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
	}
}

func item(name string, price float64, qty int) models.LineItem {
	return models.LineItem{ID: name, Name: name, UnitPrice: price, Quantity: qty}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.TotalBills)
	assert.Zero(t, summary.AverageBillValue)
	require.NotNil(t, summary.TopProducts)
	require.NotNil(t, summary.DailyRevenue)
	assert.Empty(t, summary.TopProducts)
	assert.Empty(t, summary.DailyRevenue)
}

func TestSummarizeAggregates(t *testing.T) {
	day1 := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	records := []models.TransactionRecord{
		record("b2", day2, 20, item("Bread", 3, 2), item("Cheese", 14, 1)),
		record("b1", day1, 10, item("Apple", 1, 4), item("Bread", 3, 2)),
	}

	summary := Summarize(records)

	assert.InDelta(t, 30, summary.TotalRevenue, epsilon)
	assert.Equal(t, 2, summary.TotalBills)
	assert.InDelta(t, 15, summary.AverageBillValue, epsilon)

	require.Len(t, summary.TopProducts, 3)
	assert.Equal(t, "Cheese", summary.TopProducts[0].Name)
	assert.Equal(t, "Bread", summary.TopProducts[1].Name)
	assert.Equal(t, 4, summary.TopProducts[1].QuantitySold)
	assert.InDelta(t, 12, summary.TopProducts[1].RevenueGenerated, epsilon)
	assert.Equal(t, "Apple", summary.TopProducts[2].Name)

	require.Len(t, summary.DailyRevenue, 2)
	assert.Equal(t, "2024-03-09", summary.DailyRevenue[0].Date)
	assert.InDelta(t, 10, summary.DailyRevenue[0].TotalRevenue, epsilon)
	assert.Equal(t, "2024-03-10", summary.DailyRevenue[1].Date)
}

func TestSummarizeUsesUTCDay(t *testing.T) {
	late := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	summary := Summarize([]models.TransactionRecord{record("b1", late, 5)})

	require.Len(t, summary.DailyRevenue, 1)
	assert.Equal(t, "2024-03-10", summary.DailyRevenue[0].Date)
}

func TestSummarizeTopProductsTruncatedAndStable(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	var items []models.LineItem
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"} {
		items = append(items, item(name, 2, 1))
	}
	items = append(items, item("Top", 50, 1))

	summary := Summarize([]models.TransactionRecord{record("b1", at, 74, items...)})

	require.Len(t, summary.TopProducts, topProductLimit)
	assert.Equal(t, "Top", summary.TopProducts[0].Name)
	assert.Equal(t, "A", summary.TopProducts[1].Name)
	assert.Equal(t, "B", summary.TopProducts[2].Name)
	assert.Equal(t, "I", summary.TopProducts[9].Name)
}

func TestSummarizeOrderIndependentTotals(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	a := record("a", at, 7.25, item("Tea", 7.25, 1))
	b := record("b", at.AddDate(0, 0, 1), 3.5, item("Milk", 3.5, 1))

	first := Summarize([]models.TransactionRecord{a, b})
	second := Summarize([]models.TransactionRecord{b, a})

	assert.InDelta(t, first.TotalRevenue, second.TotalRevenue, epsilon)
	assert.Equal(t, first.DailyRevenue, second.DailyRevenue)
	assert.Equal(t, first, Summarize([]models.TransactionRecord{a, b}))
}
