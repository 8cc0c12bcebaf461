package repository

import (
	"context"
	"errors"
)

// Crawl failure sentinels surfaced by fetcher implementations.
var (
	ErrFetchTimeout     = errors.New("page load timed out")
	ErrNavigationFailed = errors.New("navigation to page failed")
)

// PageContent is the readable content of one fetched page.
type PageContent struct {
	URL   string
	Title string
	Text  string // body text with scripts and styles stripped
}

// PageFetcher defines the contract for fetching a page and reducing it to
// text the extraction model can read. Implementations own the browser
// lifecycle; callers only control the URL and the configured timeout.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*PageContent, error)
}
