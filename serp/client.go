package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://serpapi.com"

// shoppingResult is one raw record from the provider's shopping engine. The
// provider's payloads are loose; every field is optional and defaults apply
// at normalization time.
type shoppingResult struct {
	Position       int     `json:"position"`
	ProductID      string  `json:"product_id"`
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	Store          string  `json:"store"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Thumbnail      string  `json:"thumbnail"`
	Image          string  `json:"image"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	ProductPageURL string  `json:"product_page_url"`
	Offer          *struct {
		Link        string `json:"link"`
		ProductLink string `json:"product_link"`
	} `json:"offer"`
}

type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

type productResponse struct {
	Images        []productImage `json:"images"`
	ProductPhotos []productImage `json:"product_photos"`
}

type productImage struct {
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Image     string `json:"image"`
}

// Client is a thin HTTP client for the shopping-search provider.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs a shopping query and returns the raw result records.
func (c *Client) Search(ctx context.Context, query string) ([]shoppingResult, error) {
	u, err := url.Parse(c.baseURL + "/search.json")
	if err != nil {
		return nil, err
	}
	params := u.Query()
	params.Set("engine", "google_shopping_light")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("search returned HTTP %d: %s", resp.StatusCode, body)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.ShoppingResults, nil
}

// ProductImage looks up the provider's product-detail endpoint and returns
// the first listed image URL, or "" when none is available.
func (c *Client) ProductImage(ctx context.Context, productID string) (string, error) {
	u, err := url.Parse(c.baseURL + "/search.json")
	if err != nil {
		return "", err
	}
	params := u.Query()
	params.Set("engine", "google_shopping_product")
	params.Set("product_id", productID)
	params.Set("api_key", c.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("product request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("product lookup returned HTTP %d", resp.StatusCode)
	}

	var out productResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode product response: %w", err)
	}

	images := out.Images
	if len(images) == 0 {
		images = out.ProductPhotos
	}
	if len(images) == 0 {
		return "", nil
	}
	first := images[0]
	switch {
	case first.Link != "":
		return first.Link, nil
	case first.Thumbnail != "":
		return first.Thumbnail, nil
	default:
		return first.Image, nil
	}
}
