package entity

import "time"

// Query status values. A query is terminal once completed or failed.
const (
	QueryStatusPending    = "pending"
	QueryStatusProcessing = "processing"
	QueryStatusCompleted  = "completed"
	QueryStatusFailed     = "failed"
)

// ProductQuery mirrors the `product_queries` PostgreSQL table schema.
// It represents one natural-language shopping request submitted by a user.
type ProductQuery struct {
	ID           string
	QueryText    string
	Status       string
	ParsedIntent *ParsedIntent // nil until the parse stage has run; stored as JSONB
	ErrorMessage string
	TotalResults int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParsedIntent is the structured shopping intent the LLM extracts from a
// free-text query.
type ParsedIntent struct {
	ProductType     string   `json:"product_type"`
	PriceMin        *float64 `json:"price_min"`
	PriceMax        *float64 `json:"price_max"`
	UseCase         string   `json:"use_case"`
	Requirements    []string `json:"requirements"`
	Preferences     []string `json:"preferences"`
	BrandPreference string   `json:"brand_preference"`
	SearchQueries   []string `json:"search_queries"`
}
