package entity

import "time"

// Persisted string column limits.
const (
	ProductNameMaxLen     = 500
	ProductURLMaxLen      = 1000
	ProductDomainMaxLen   = 255
	ProductCurrencyMaxLen = 3
)

// Product mirrors the `products` PostgreSQL table schema. One row per
// extracted listing. The llm_* fields stay nil until the ranking stage
// enriches the row; a product is never deleted by the pipeline.
type Product struct {
	ID           string
	SessionID    string
	Name         string
	Price        *float64
	Currency     string
	URL          string
	SourceDomain string
	ImageURL     string
	RawData      ExtractedProduct // Stored as JSONB
	Features     []string         // Stored as JSONB
	LLMScore     *float64
	LLMPros      []string // Stored as JSONB
	LLMCons      []string // Stored as JSONB
	LLMSummary   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RankingProduct is the lighter-weight product view handed to the ranker,
// accumulated while products are persisted.
type RankingProduct struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Currency     string   `json:"currency"`
	URL          string   `json:"url"`
	SourceDomain string   `json:"source_domain"`
	Rating       *float64 `json:"rating"`
	ReviewCount  *float64 `json:"review_count"`
	Features     []string `json:"features"`
	Availability string   `json:"availability"`
}
