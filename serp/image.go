package serp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const scrapeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ImageResolver scrapes a product page for an Open Graph or Twitter-card
// image. When RenderFallback is set and the static HTML carries no tag, the
// page is re-fetched through a headless browser before giving up.
type ImageResolver struct {
	Client         *http.Client
	RenderFallback bool
}

func NewImageResolver(renderFallback bool) *ImageResolver {
	return &ImageResolver{
		Client:         &http.Client{Timeout: 15 * time.Second},
		RenderFallback: renderFallback,
	}
}

// FromPage returns the page's og:image (or twitter:image) URL, normalized
// against the page URL. Empty string when no image meta tag is found.
func (r *ImageResolver) FromPage(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" || !strings.HasPrefix(pageURL, "http") {
		return "", nil
	}

	doc, err := r.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	img := metaImage(doc)
	if img == "" && r.RenderFallback {
		doc, err = r.fetchRenderedDocument(ctx, pageURL)
		if err != nil {
			return "", err
		}
		img = metaImage(doc)
	}
	if img == "" {
		return "", nil
	}
	return normalizeImageURL(img, pageURL), nil
}

func metaImage(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	return ""
}

// normalizeImageURL resolves protocol-relative and root-relative image URLs
// against the page they were scraped from.
func normalizeImageURL(img, pageURL string) string {
	if strings.HasPrefix(img, "//") {
		return "https:" + img
	}
	if strings.HasPrefix(img, "/") {
		base, err := url.Parse(pageURL)
		if err != nil {
			return img
		}
		ref, err := url.Parse(img)
		if err != nil {
			return img
		}
		return base.ResolveReference(ref).String()
	}
	return img
}

func (r *ImageResolver) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

// fetchRenderedDocument loads the page in headless Chrome so JS-injected
// meta tags become visible.
func (r *ImageResolver) fetchRenderedDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.UserAgent(scrapeUserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	headers := map[string]interface{}{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
	if err := chromedp.Run(taskCtx, network.SetExtraHTTPHeaders(network.Headers(headers))); err != nil {
		return nil, fmt.Errorf("chromedp header error: %w", err)
	}

	var htmlContent string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp navigation error: %w", err)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
}
