package models

// ProductSales aggregates the sales of one product name.
type ProductSales struct {
	Name             string  `json:"name"`
	QuantitySold     int     `json:"quantity_sold"`
	RevenueGenerated float64 `json:"revenue_generated"`
}

// DailyRevenue is the revenue of a single calendar day (YYYY-MM-DD).
type DailyRevenue struct {
	Date         string  `json:"date"`
	TotalRevenue float64 `json:"total_revenue"`
}

// SalesSummary is derived from the transaction history on demand and never stored.
type SalesSummary struct {
	TotalRevenue     float64        `json:"total_revenue"`
	TotalBills       int            `json:"total_bills"`
	AverageBillValue float64        `json:"average_bill_value"`
	TopProducts      []ProductSales `json:"top_products"`
	DailyRevenue     []DailyRevenue `json:"daily_revenue"`
}

// SalesAnalysis pairs the computed summary with a narrative gloss.
type SalesAnalysis struct {
	Summary        SalesSummary `json:"summary"`
	CurrencyCode   string       `json:"currency_code"`
	CurrencySymbol string       `json:"currency_symbol"`
	Narrative      string       `json:"narrative"`
	Warnings       []string     `json:"warnings,omitempty"`
}
