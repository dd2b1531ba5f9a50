package reporting

import (
	"sort"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const (
	dateLayout      = "2006-01-02"
	topProductLimit = 10
)

// Summarize folds paid transactions into sales metrics. It is pure: the same
// records always produce the same summary, whatever their order.
func Summarize(records []models.TransactionRecord) models.SalesSummary {
	summary := models.SalesSummary{
		TopProducts:  []models.ProductSales{},
		DailyRevenue: []models.DailyRevenue{},
	}
	if len(records) == 0 {
		return summary
	}

	products := make(map[string]int)
	days := make(map[string]int)

	for _, record := range records {
		summary.TotalRevenue += record.GrandTotal
		summary.TotalBills++

		day := record.Timestamp.UTC().Format(dateLayout)
		if idx, ok := days[day]; ok {
			summary.DailyRevenue[idx].TotalRevenue += record.GrandTotal
		} else {
			days[day] = len(summary.DailyRevenue)
			summary.DailyRevenue = append(summary.DailyRevenue, models.DailyRevenue{Date: day, TotalRevenue: record.GrandTotal})
		}

		for _, item := range record.Items {
			idx, ok := products[item.Name]
			if !ok {
				idx = len(summary.TopProducts)
				products[item.Name] = idx
				summary.TopProducts = append(summary.TopProducts, models.ProductSales{Name: item.Name})
			}
			summary.TopProducts[idx].QuantitySold += item.Quantity
			summary.TopProducts[idx].RevenueGenerated += item.LineTotal()
		}
	}

	summary.AverageBillValue = summary.TotalRevenue / float64(summary.TotalBills)

	// ties keep first-seen order
	sort.SliceStable(summary.TopProducts, func(i, j int) bool {
		return summary.TopProducts[i].RevenueGenerated > summary.TopProducts[j].RevenueGenerated
	})
	if len(summary.TopProducts) > topProductLimit {
		summary.TopProducts = summary.TopProducts[:topProductLimit]
	}

	sort.Slice(summary.DailyRevenue, func(i, j int) bool {
		return summary.DailyRevenue[i].Date < summary.DailyRevenue[j].Date
	})

	return summary
}
