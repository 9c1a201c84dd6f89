package serp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaki/vesaki-server/models"
)

type stubCatalog struct {
	cards []models.ProductCard
	err   error
}

func (s stubCatalog) Search(ctx context.Context, query string, count int) ([]models.ProductCard, error) {
	return s.cards, s.err
}

func testAdapter(baseURL string, catalog CatalogSource) *Adapter {
	return &Adapter{
		client: &Client{
			apiKey:  "test-key",
			baseURL: baseURL,
			http:    &http.Client{Timeout: 5 * time.Second},
		},
		catalog: catalog,
		logf:    func(format string, args ...interface{}) {},
	}
}

func TestAdapter_NoKeyFallsBackToCatalog(t *testing.T) {
	cat := stubCatalog{cards: []models.ProductCard{{ID: "p1", Name: "Wool Coat"}}}
	a := NewAdapter("", nil, cat)
	a.logf = func(format string, args ...interface{}) {}

	result, err := a.Search(context.Background(), "coat", 10)
	require.NoError(t, err)
	assert.Equal(t, SourceInternal, result.Source)
	assert.True(t, result.Fallback)
	assert.Equal(t, 1, result.Count)
}

func TestAdapter_ProviderErrorFallsBackToCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cat := stubCatalog{cards: []models.ProductCard{{ID: "p1", Name: "Wool Coat"}}}
	a := testAdapter(srv.URL, cat)

	result, err := a.Search(context.Background(), "coat", 10)
	require.NoError(t, err)
	assert.Equal(t, SourceInternal, result.Source)
	assert.True(t, result.Fallback)
}

func TestAdapter_NormalizesProviderResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("engine") {
		case "google_shopping_light":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"shopping_results": []map[string]interface{}{
					{
						"position":  1,
						"title":     "Linen Shirt",
						"source":    "Arket",
						"price":     "$89.00",
						"thumbnail": "https://img.example.com/shirt.jpg",
						"link":      "https://retailer.example.com/shirt",
					},
					{
						"position":     2,
						"product_id":   "prod-777",
						"title":        "Denim Jacket",
						"price":        "€120.00",
						"link":         "https://www.google.com/shopping/product/777",
						"product_link": "https://retailer.example.com/jacket",
					},
				},
			})
		case "google_shopping_product":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"product_photos": []map[string]interface{}{
					{"link": "https://img.example.com/jacket.jpg"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := testAdapter(srv.URL, stubCatalog{})

	result, err := a.Search(context.Background(), "jacket", 10)
	require.NoError(t, err)
	assert.Equal(t, SourceSerpAPI, result.Source)
	assert.False(t, result.Fallback)
	require.Len(t, result.Products, 2)

	shirt := result.Products[0]
	assert.Equal(t, "Linen Shirt", shirt.Name)
	assert.Equal(t, "Arket", shirt.Brand)
	assert.Equal(t, 89.0, shirt.Price)
	assert.Equal(t, "USD", shirt.Currency)
	assert.Equal(t, "https://img.example.com/shirt.jpg", shirt.ImageURL)
	assert.Equal(t, "https://retailer.example.com/shirt", shirt.ProductURL)
	assert.True(t, shirt.IsExternal)
	assert.True(t, strings.HasPrefix(shirt.ID, "serp-"))

	// Missing thumbnail resolves through the product-detail lookup, and the
	// search-engine link loses to the real retailer link.
	jacket := result.Products[1]
	assert.Equal(t, "https://img.example.com/jacket.jpg", jacket.ImageURL)
	assert.Equal(t, "https://retailer.example.com/jacket", jacket.ProductURL)
	assert.Equal(t, "EUR", jacket.Currency)
	assert.Equal(t, "prod-777", jacket.ExternalID)
}

func TestAdapter_TruncatesToCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]interface{}, 10)
		for i := range results {
			results[i] = map[string]interface{}{
				"position":  i + 1,
				"title":     "Item",
				"thumbnail": "https://img.example.com/item.jpg",
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"shopping_results": results})
	}))
	defer srv.Close()

	a := testAdapter(srv.URL, stubCatalog{})

	result, err := a.Search(context.Background(), "item", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
}

func TestSynthesizeID_Unique(t *testing.T) {
	r := shoppingResult{ProductID: "abc"}
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		id := synthesizeID(r, i)
		assert.True(t, strings.HasPrefix(id, "serp-abc-"))
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIsExternalRetailerURL(t *testing.T) {
	assert.False(t, isExternalRetailerURL(""))
	assert.False(t, isExternalRetailerURL("https://www.google.com/shopping/product/1"))
	assert.False(t, isExternalRetailerURL("https://serpapi.com/search"))
	assert.True(t, isExternalRetailerURL("https://shop.example.com/item"))
}
