package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
)

// Catalog serves product cards out of the local store. It is the fallback
// source when the external search provider is unavailable, and always
// returns something when the catalog holds at least one row.
type Catalog struct {
	store store.Store
}

func New(s store.Store) *Catalog {
	return &Catalog{store: s}
}

// Search matches the query case-insensitively against name, brand, category
// and description. No matches (or an empty query) degrade to trending rows,
// then to uniformly random rows.
func (c *Catalog) Search(ctx context.Context, query string, count int) ([]models.ProductCard, error) {
	q := strings.TrimSpace(query)

	var rows []models.Product
	var err error
	if q != "" {
		rows, err = c.store.SearchProducts(ctx, q, count)
		if err != nil {
			return nil, fmt.Errorf("catalog search: %w", err)
		}
	}

	if len(rows) == 0 {
		rows, err = c.store.TrendingProducts(ctx, count)
		if err != nil {
			return nil, fmt.Errorf("catalog trending: %w", err)
		}
	}

	if len(rows) == 0 {
		rows, err = c.store.RandomProducts(ctx, count)
		if err != nil {
			return nil, fmt.Errorf("catalog random: %w", err)
		}
	}

	cards := make([]models.ProductCard, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, CardFromProduct(row))
	}
	return cards, nil
}

// CardFromProduct converts a stored catalog row to the card shape served to
// the UI. The stored string-encoded price parses to 0 when malformed.
func CardFromProduct(p models.Product) models.ProductCard {
	price, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		price = 0
	}
	return models.ProductCard{
		ID:          p.ID,
		ExternalID:  p.ExternalID,
		Name:        p.Name,
		Brand:       p.Brand,
		Price:       price,
		Currency:    p.Currency,
		Retailer:    p.Retailer,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		ImageURL:    p.ImageURL,
		ProductURL:  p.ProductURL,
		Description: p.Description,
		InStock:     p.InStock,
		Trending:    p.Trending,
		IsNew:       p.IsNew,
		IsEditorial: p.IsEditorial,
		IsExternal:  false,
	}
}
