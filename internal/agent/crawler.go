package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/jsonx"
	"github.com/user/buysmart-service/internal/llm"
	"github.com/user/buysmart-service/internal/repository"
	"github.com/user/buysmart-service/pkg/metrics"
	"github.com/user/buysmart-service/pkg/utils"
)

// productExtractionPrompt instructs the model to pull product listings out
// of a page's text.
const productExtractionPrompt = `Extract product information from this e-commerce page. For each product found,
extract the following fields and return as a JSON array:

[
    {
        "name": "Full product name",
        "price": 99.99,
        "currency": "USD",
        "url": "full product URL",
        "image_url": "product image URL or null",
        "rating": 4.5,
        "review_count": 1234,
        "features": ["feature 1", "feature 2", "feature 3"],
        "availability": "in stock" or "out of stock" or "unknown"
    }
]

Rules:
- Extract ALL products visible on the page
- Price should be a number without currency symbols
- Rating should be on a 0-5 scale
- Features should be a list of key product features/specs
- Return ONLY valid JSON array, no additional text
- If a field cannot be determined, use null`

// maxPageTextBytes bounds the page text sent to the extraction model.
const maxPageTextBytes = 60_000

// ProductCrawler crawls e-commerce URLs sequentially and extracts
// structured product records from each page via the LLM.
type ProductCrawler struct {
	fetcher repository.PageFetcher
	client  llm.Client
	delay   time.Duration
}

// NewProductCrawler creates a ProductCrawler. The delay is the courtesy
// pause between consecutive page fetches.
func NewProductCrawler(fetcher repository.PageFetcher, client llm.Client, delay time.Duration) *ProductCrawler {
	return &ProductCrawler{fetcher: fetcher, client: client, delay: delay}
}

// CrawlURLs crawls each URL in order and returns exactly one result per
// input URL. A failed URL records its error and contributes no products;
// it never aborts the batch.
func (c *ProductCrawler) CrawlURLs(ctx context.Context, urls []string) ([]entity.PageResult, error) {
	results := make([]entity.PageResult, 0, len(urls))

	for i, u := range urls {
		if i > 0 {
			// Delay between requests to be respectful to the marketplaces.
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
		results = append(results, c.crawlSingle(ctx, u))
	}

	total := 0
	successful := 0
	for _, r := range results {
		total += len(r.Products)
		if r.Success {
			successful++
		}
	}
	slog.Info("Crawl complete", "urls", len(urls), "successful", successful, "products", total)
	return results, nil
}

// crawlSingle fetches one URL and extracts its products. All failure modes
// collapse into an unsuccessful PageResult.
func (c *ProductCrawler) crawlSingle(ctx context.Context, pageURL string) entity.PageResult {
	domain := utils.Hostname(pageURL)
	slog.Info("Crawling", "url", pageURL)

	start := time.Now()
	content, err := c.fetcher.Fetch(ctx, pageURL)
	observeCrawl(domain, start, err)
	if err != nil {
		slog.Warn("Crawl failed", "url", pageURL, "error", err)
		return entity.PageResult{
			URL:      pageURL,
			Domain:   domain,
			Success:  false,
			Products: []entity.ExtractedProduct{},
			Error:    err.Error(),
		}
	}

	products, err := c.extractProducts(ctx, content, domain)
	if err != nil {
		slog.Warn("Extraction failed", "url", pageURL, "error", err)
		return entity.PageResult{
			URL:      pageURL,
			Domain:   domain,
			Success:  false,
			Products: []entity.ExtractedProduct{},
			Error:    err.Error(),
		}
	}

	slog.Info("Extracted products", "domain", domain, "count", len(products))
	if metrics.ProductsExtracted != nil {
		metrics.ProductsExtracted.Add(float64(len(products)))
	}
	return entity.PageResult{
		URL:      pageURL,
		Domain:   domain,
		Success:  true,
		Products: products,
	}
}

// extractProducts asks the model for a product array over the page text
// and normalizes every record.
func (c *ProductCrawler) extractProducts(ctx context.Context, content *repository.PageContent, domain string) ([]entity.ExtractedProduct, error) {
	text := content.Text
	if len(text) > maxPageTextBytes {
		text = text[:maxPageTextBytes]
	}
	user := fmt.Sprintf("Page URL: %s\nPage title: %s\n\nPage content:\n%s", content.URL, content.Title, text)

	raw, err := c.client.Complete(ctx, productExtractionPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	// Unparseable output means the page held no products, not a failed
	// crawl. Only fetch and completion errors mark the URL failed.
	var items []any
	if err := jsonx.DecodeArray(raw, &items); err != nil {
		slog.Warn("No product JSON in extraction output", "domain", domain, "error", err)
		return []entity.ExtractedProduct{}, nil
	}

	products := make([]entity.ExtractedProduct, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue // non-object elements are discarded
		}
		products = append(products, normalizeProduct(entity.ExtractedProduct(record), domain))
	}
	return products, nil
}

// normalizeProduct enriches a record with its source domain and defaults
// every expected field the model left out.
func normalizeProduct(p entity.ExtractedProduct, domain string) entity.ExtractedProduct {
	p["source_domain"] = domain
	setDefault(p, "name", "Unknown Product")
	setDefault(p, "price", nil)
	setDefault(p, "currency", "USD")
	setDefault(p, "url", "")
	setDefault(p, "image_url", nil)
	setDefault(p, "rating", nil)
	setDefault(p, "review_count", nil)
	setDefault(p, "features", []any{})
	setDefault(p, "availability", "unknown")
	return p
}

// setDefault fills key with value when the key is absent or null.
func setDefault(p entity.ExtractedProduct, key string, value any) {
	if v, ok := p[key]; !ok || v == nil {
		if value == nil {
			p[key] = nil
			return
		}
		p[key] = value
	}
}

func observeCrawl(domain string, start time.Time, err error) {
	if metrics.CrawlsTotal == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.CrawlsTotal.WithLabelValues(status).Inc()
	metrics.CrawlDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
}
