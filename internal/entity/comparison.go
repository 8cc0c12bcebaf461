package entity

import "time"

// ComparisonResult mirrors the `comparison_results` PostgreSQL table
// schema. Exactly one row exists per completed query.
type ComparisonResult struct {
	ID                string
	QueryID           string
	LLMReasoning      string
	LLMRecommendation string
	RankingCriteria   map[string]int // Stored as JSONB; fixed scoring weights
	CreatedAt         time.Time
}

// RankingCriteriaWeights is the fixed 100-point scoring breakdown recorded
// with every comparison.
func RankingCriteriaWeights() map[string]int {
	return map[string]int{
		"price_value":      25,
		"features_match":   25,
		"quality_rating":   20,
		"brand_reputation": 15,
		"availability":     15,
	}
}

// ProductRanking mirrors the `product_rankings` PostgreSQL table schema.
// It links one product into a comparison at a rank position; (comparison,
// rank) pairs are unique and ranks are dense starting at 1.
type ProductRanking struct {
	ID             string
	ComparisonID   string
	ProductID      string
	Rank           int
	Reasoning      string
	ScoreBreakdown ScoreBreakdown // Stored as JSONB
	CreatedAt      time.Time
}

// ScoreBreakdown is the per-product scoring detail recorded with a ranking.
type ScoreBreakdown struct {
	OverallScore     float64  `json:"overall_score"`
	PriceValueRating string   `json:"price_value_rating"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
}

// RankingEntry is one ranked product in the LLM's ranking response.
// ProductIndex is nil when the model omitted it; consumers fall back to
// the entry's position in the sorted ranking.
type RankingEntry struct {
	ProductIndex     *int     `json:"product_index"`
	ProductName      string   `json:"product_name"`
	Score            float64  `json:"score"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	Reasoning        string   `json:"reasoning"`
	PriceValueRating string   `json:"price_value_rating"`
	Recommendation   string   `json:"recommendation"`
}

// RankingOutcome is the ranker's full verdict over one product list,
// re-sorted by score descending before use.
type RankingOutcome struct {
	Rankings        []RankingEntry `json:"rankings"`
	OverallSummary  string         `json:"overall_summary"`
	BestOverall     string         `json:"best_overall"`
	BestValue       string         `json:"best_value"`
	ComparisonNotes string         `json:"comparison_notes"`
}

// PipelineResult is the final payload returned by a pipeline run.
type PipelineResult struct {
	QueryID       string         `json:"query_id"`
	Status        string         `json:"status"`
	ProductsFound int            `json:"products_found"`
	ComparisonID  string         `json:"comparison_id,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Rankings      []RankingEntry `json:"rankings,omitempty"`
	BestOverall   string         `json:"best_overall,omitempty"`
	BestValue     string         `json:"best_value,omitempty"`
	Error         string         `json:"error,omitempty"`
}
