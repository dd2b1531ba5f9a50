package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// CatalogRange holds the known products as id, name, price rows under a header row.
const CatalogRange = "Catalog!A2:C"

// Catalog reads the store's known products from the spreadsheet.
type Catalog struct {
	repo     Repository
	fallback []models.Product
	logger   *zap.Logger
}

// NewCatalog wires a catalog; fallback is served while the sheet has no products.
func NewCatalog(repo Repository, fallback []models.Product, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{repo: repo, fallback: fallback, logger: logger}
}

// KnownProducts returns the catalog products, skipping malformed rows.
func (c *Catalog) KnownProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := c.repo.ReadRange(ctx, CatalogRange)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(row[1]))
		if name == "" {
			continue
		}
		price, err := parseFloat(row[2])
		if err != nil || price < 0 {
			c.logger.Debug("skip catalog row with invalid price", zap.Any("value", row[2]))
			continue
		}
		products = append(products, models.Product{
			ID:    strings.TrimSpace(fmt.Sprint(row[0])),
			Name:  name,
			Price: price,
		})
	}

	if len(products) == 0 {
		return append([]models.Product(nil), c.fallback...), nil
	}
	return products, nil
}

func parseFloat(value interface{}) (float64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
