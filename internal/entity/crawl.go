package entity

import "time"

// CrawlSession status values.
const (
	SessionStatusCrawling  = "crawling"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// CrawlSession mirrors the `crawl_sessions` PostgreSQL table schema.
// One session covers one batch crawl of all URLs derived from a query.
// A session is immutable once it reaches a terminal status.
type CrawlSession struct {
	ID           string
	QueryID      string
	URLsToCrawl  []string     // Stored as JSONB
	URLsCrawled  []string     // Stored as JSONB
	URLsFailed   []FailedURL  // Stored as JSONB
	RawResults   []PageResult // Stored as JSONB, verbatim for audit/debugging
	Status       string
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// FailedURL records one URL that could not be crawled within a session.
type FailedURL struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// PageResult is the outcome of crawling a single URL. A batch of M URLs
// always yields exactly M results; failures carry an error and no products.
type PageResult struct {
	URL      string             `json:"url"`
	Domain   string             `json:"domain"`
	Success  bool               `json:"success"`
	Products []ExtractedProduct `json:"products"`
	Error    string             `json:"error,omitempty"`
}

// ExtractedProduct is one product record as the LLM extracted it from a
// page, enriched with source_domain and with missing fields defaulted.
// It stays schemaless: models return prices as numbers or strings, ratings
// as strings, and arbitrary extra keys, all of which are persisted verbatim
// in the product's raw_data column.
type ExtractedProduct map[string]any

// String returns the value under key when it is a string, else fallback.
func (p ExtractedProduct) String(key, fallback string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Number returns the numeric value under key. JSON numbers decode as
// float64; anything else reports false.
func (p ExtractedProduct) Number(key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

// Strings returns the value under key coerced to a string slice.
func (p ExtractedProduct) Strings(key string) []string {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
