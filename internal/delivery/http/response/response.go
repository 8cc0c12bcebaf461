package response

import (
	"time"

	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/usecase"
)

// QueryResponse is a DTO for a product query, mirroring entity.ProductQuery
type QueryResponse struct {
	ID           string               `json:"id"`
	QueryText    string               `json:"query_text"`
	Status       string               `json:"status"`
	ParsedIntent *entity.ParsedIntent `json:"parsed_intent,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	TotalResults int                  `json:"total_results"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func NewQueryResponse(q *entity.ProductQuery) QueryResponse {
	return QueryResponse{
		ID:           q.ID,
		QueryText:    q.QueryText,
		Status:       q.Status,
		ParsedIntent: q.ParsedIntent,
		ErrorMessage: q.ErrorMessage,
		TotalResults: q.TotalResults,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

type SessionResponse struct {
	ID           string             `json:"id"`
	QueryID      string             `json:"query_id"`
	URLsToCrawl  []string           `json:"urls_to_crawl"`
	URLsCrawled  []string           `json:"urls_crawled"`
	URLsFailed   []entity.FailedURL `json:"urls_failed"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

func NewSessionResponse(s *entity.CrawlSession) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		QueryID:      s.QueryID,
		URLsToCrawl:  s.URLsToCrawl,
		URLsCrawled:  s.URLsCrawled,
		URLsFailed:   s.URLsFailed,
		Status:       s.Status,
		ErrorMessage: s.ErrorMessage,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
}

type ProductResponse struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"session_id"`
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Currency     string   `json:"currency"`
	URL          string   `json:"url"`
	SourceDomain string   `json:"source_domain"`
	ImageURL     string   `json:"image_url,omitempty"`
	Features     []string `json:"features"`
	LLMScore     *float64 `json:"llm_score"`
	LLMPros      []string `json:"llm_pros,omitempty"`
	LLMCons      []string `json:"llm_cons,omitempty"`
	LLMSummary   string   `json:"llm_summary,omitempty"`
}

func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		SessionID:    p.SessionID,
		Name:         p.Name,
		Price:        p.Price,
		Currency:     p.Currency,
		URL:          p.URL,
		SourceDomain: p.SourceDomain,
		ImageURL:     p.ImageURL,
		Features:     p.Features,
		LLMScore:     p.LLMScore,
		LLMPros:      p.LLMPros,
		LLMCons:      p.LLMCons,
		LLMSummary:   p.LLMSummary,
	}
}

type RankingResponse struct {
	Rank           int                   `json:"rank"`
	ProductID      string                `json:"product_id"`
	Reasoning      string                `json:"reasoning"`
	ScoreBreakdown entity.ScoreBreakdown `json:"score_breakdown"`
}

// QueryResultResponse is the assembled comparison view of a completed query.
type QueryResultResponse struct {
	QueryID           string            `json:"query_id"`
	QueryText         string            `json:"query_text"`
	Status            string            `json:"status"`
	TotalResults      int               `json:"total_results"`
	LLMReasoning      string            `json:"llm_reasoning"`
	LLMRecommendation string            `json:"llm_recommendation"`
	RankingCriteria   map[string]int    `json:"ranking_criteria"`
	Rankings          []RankingResponse `json:"rankings"`
	Products          []ProductResponse `json:"products"`
}

func NewQueryResultResponse(result *usecase.QueryResult) QueryResultResponse {
	rankings := make([]RankingResponse, 0, len(result.Rankings))
	for _, r := range result.Rankings {
		rankings = append(rankings, RankingResponse{
			Rank:           r.Rank,
			ProductID:      r.ProductID,
			Reasoning:      r.Reasoning,
			ScoreBreakdown: r.ScoreBreakdown,
		})
	}
	products := make([]ProductResponse, 0, len(result.Products))
	for _, p := range result.Products {
		products = append(products, NewProductResponse(p))
	}
	return QueryResultResponse{
		QueryID:           result.Query.ID,
		QueryText:         result.Query.QueryText,
		Status:            result.Query.Status,
		TotalResults:      result.Query.TotalResults,
		LLMReasoning:      result.Comparison.LLMReasoning,
		LLMRecommendation: result.Comparison.LLMRecommendation,
		RankingCriteria:   result.Comparison.RankingCriteria,
		Rankings:          rankings,
		Products:          products,
	}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}
