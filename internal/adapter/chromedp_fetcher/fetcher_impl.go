package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/user/buysmart-service/internal/repository"
)

// ChromedpFetcher fetches pages with a headless browser and reduces them
// to readable text for LLM extraction. Marketplace search pages render
// their listings with JavaScript, so a plain HTTP GET is not enough.
type ChromedpFetcher struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
}

// NewChromedpFetcher creates a new fetcher implementation using chromedp.
func NewChromedpFetcher(poolSize int, pageLoadTimeout time.Duration) (*ChromedpFetcher, error) {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36`),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}

	// Pre-warm the pool
	for i := 0; i < poolSize; i++ {
		allocCtx := pool.Get().(context.Context)
		pool.Put(allocCtx)
	}

	return &ChromedpFetcher{
		allocatorPool: pool,
		timeout:       pageLoadTimeout,
	}, nil
}

// Fetch navigates to a URL, waits for the body, and returns the cleaned
// page text.
func (f *ChromedpFetcher) Fetch(ctx context.Context, url string) (*repository.PageContent, error) {
	allocCtx := f.allocatorPool.Get().(context.Context)
	defer f.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", repository.ErrFetchTimeout, url)
		}
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}

	content, err := reduceHTML(url, html)
	if err != nil {
		return nil, fmt.Errorf("reduce page html for %s: %w", url, err)
	}

	slog.Debug("Fetched page", "url", url, "text_bytes", len(content.Text))
	return content, nil
}

// reduceHTML strips scripts and styles and collapses the body down to the
// text the extraction model needs to see.
func reduceHTML(url, html string) (*repository.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	title := doc.Find("title").First().Text()

	doc.Find("script, style, noscript").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = collapseWhitespace(text)

	return &repository.PageContent{
		URL:   url,
		Title: strings.TrimSpace(title),
		Text:  text,
	}, nil
}

// collapseWhitespace squeezes runs of whitespace so the page text stays
// within a sane prompt size.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
