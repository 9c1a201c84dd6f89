package serp

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"github.com/vesaki/vesaki-server/models"
)

// Source tags for Result.Source.
const (
	SourceSerpAPI  = "serpapi"
	SourceInternal = "internal"
)

// CatalogSource is the internal catalog the adapter degrades to when the
// external provider is unconfigured or failing.
type CatalogSource interface {
	Search(ctx context.Context, query string, count int) ([]models.ProductCard, error)
}

// Result is one sourced batch of product cards with its provenance.
type Result struct {
	Products []models.ProductCard `json:"products"`
	Count    int                  `json:"count"`
	Source   string               `json:"source"`
	Fallback bool                 `json:"fallback,omitempty"`
}

// Adapter sources product cards from the external shopping-search provider,
// guaranteeing every card has a usable (possibly empty, never absent) image
// URL, and falls back to the internal catalog when the provider is down.
type Adapter struct {
	client  *Client // nil when no provider credential is configured
	images  *ImageResolver
	catalog CatalogSource
	logf    func(format string, args ...interface{})
}

// NewAdapter builds an adapter. apiKey may be empty, in which case every
// search routes straight to the catalog fallback.
func NewAdapter(apiKey string, images *ImageResolver, catalog CatalogSource) *Adapter {
	a := &Adapter{
		images:  images,
		catalog: catalog,
		logf:    func(format string, args ...interface{}) { fmt.Printf("[SEARCH] "+format+"\n", args...) },
	}
	if apiKey != "" {
		a.client = NewClient(apiKey)
	}
	return a
}

// Search returns up to count products for the query. A hard failure of the
// provider search degrades the whole request to the internal catalog;
// failures in per-product image resolution degrade only that product.
func (a *Adapter) Search(ctx context.Context, query string, count int) (Result, error) {
	if a.client == nil {
		a.logf("no provider key configured, falling back to internal products")
		return a.fromCatalog(ctx, query, count)
	}

	results, err := a.client.Search(ctx, query)
	if err != nil {
		a.logf("provider search failed: %v, falling back to internal products", err)
		return a.fromCatalog(ctx, query, count)
	}

	if len(results) > count {
		results = results[:count]
	}

	cards := make([]models.ProductCard, 0, len(results))
	for idx, r := range results {
		cards = append(cards, a.normalize(ctx, r, idx))
	}

	return Result{Products: cards, Count: len(cards), Source: SourceSerpAPI}, nil
}

func (a *Adapter) fromCatalog(ctx context.Context, query string, count int) (Result, error) {
	cards, err := a.catalog.Search(ctx, query, count)
	if err != nil {
		return Result{}, fmt.Errorf("internal catalog search: %w", err)
	}
	return Result{Products: cards, Count: len(cards), Source: SourceInternal, Fallback: true}, nil
}

// normalize maps one raw provider record to a product card, applying the
// price parse, retailer-URL pick and image fallback cascade.
func (a *Adapter) normalize(ctx context.Context, r shoppingResult, idx int) models.ProductCard {
	price, currency := ParsePrice(r.Price)

	name := r.Title
	if name == "" {
		name = "Product"
	}
	brand := r.Source
	if brand == "" {
		brand = r.Store
	}
	if brand == "" {
		brand = "Unknown"
	}

	productURL := pickRetailerURL(r)
	imageURL := a.resolveImage(ctx, r, productURL)

	var description string
	if r.ExtractedPrice != 0 {
		description = fmt.Sprintf("%v", r.ExtractedPrice)
	}

	return models.ProductCard{
		ID:          synthesizeID(r, idx),
		ExternalID:  r.ProductID,
		Name:        name,
		Brand:       brand,
		Price:       price,
		Currency:    currency,
		Retailer:    brand,
		Category:    "search",
		ImageURL:    imageURL,
		ProductURL:  productURL,
		Description: description,
		InStock:     true,
		IsExternal:  true,
	}
}

// resolveImage walks the fallback cascade: record thumbnail, then the
// provider's product-detail lookup, then an og:image scrape of the purchase
// page. Every failure is logged and degrades to the next step; worst case is
// an empty string.
func (a *Adapter) resolveImage(ctx context.Context, r shoppingResult, productURL string) string {
	if r.Thumbnail != "" {
		return r.Thumbnail
	}
	if r.Image != "" {
		return r.Image
	}

	if r.ProductID != "" {
		img, err := a.client.ProductImage(ctx, r.ProductID)
		if err != nil {
			a.logf("product image fetch failed: %v", err)
		} else if img != "" {
			a.logf("filled via product API for %s", r.ProductID)
			return img
		}
	}

	if a.images != nil {
		img, err := a.images.FromPage(ctx, productURL)
		if err != nil {
			a.logf("og:image fetch failed: %v", err)
		} else if img != "" {
			a.logf("filled via og:image for %s", productURL)
			return img
		}
	}

	a.logf("no image found for result %q", r.Title)
	return ""
}

// pickRetailerURL prefers the first link candidate that points at an actual
// retailer host rather than the provider's or the search engine's own
// domain; then any available link; then a placeholder.
func pickRetailerURL(r shoppingResult) string {
	var candidates []string
	candidates = append(candidates, r.Link, r.ProductLink, r.ProductPageURL)
	if r.Offer != nil {
		candidates = append(candidates, r.Offer.Link, r.Offer.ProductLink)
	}
	for _, c := range candidates {
		if isExternalRetailerURL(c) {
			return c
		}
	}
	if r.Link != "" {
		return r.Link
	}
	if r.ProductLink != "" {
		return r.ProductLink
	}
	return "#"
}

func isExternalRetailerURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if strings.Contains(host, "google.") || strings.Contains(host, "serpapi.com") {
		return false
	}
	return true
}

// synthesizeID builds a stable-enough identifier for one result. The
// provider does not guarantee unique ids across calls, so a random suffix is
// appended.
func synthesizeID(r shoppingResult, idx int) string {
	base := r.ProductID
	if base == "" && r.Position != 0 {
		base = fmt.Sprintf("%d", r.Position)
	}
	if base == "" {
		base = fmt.Sprintf("%d", idx)
	}
	return fmt.Sprintf("serp-%s-%s", base, randSuffix(6))
}

// CardSource exposes the adapter to consumers that want the cards without
// the provenance envelope.
type CardSource struct {
	Adapter *Adapter
}

func (s CardSource) Search(ctx context.Context, query string, count int) ([]models.ProductCard, error) {
	res, err := s.Adapter.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}
	return res.Products, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}
