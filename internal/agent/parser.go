// Package agent holds the three LLM-backed pipeline stages: query parsing,
// product crawling, and ranking. Each stage is a thin wrapper around one
// completion call plus the JSON post-processing the models make necessary.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/jsonx"
	"github.com/user/buysmart-service/internal/llm"
)

// queryParsePrompt instructs the model to turn a free-text shopping query
// into structured intent.
const queryParsePrompt = `You are a product search query parser. Your job is to extract structured intent from natural language product queries.

Given a user query, extract the following fields and return ONLY valid JSON (no markdown, no explanation):

{
    "product_type": "the main product category",
    "price_min": null or number,
    "price_max": null or number,
    "use_case": "primary use case or null",
    "requirements": ["list", "of", "must-have", "features"],
    "preferences": ["list", "of", "nice-to-have", "features"],
    "brand_preference": "preferred brand or null",
    "search_queries": ["3 to 5 optimized search queries for e-commerce sites"]
}

Rules:
- Extract price constraints from phrases like "under $200", "between $50 and $100"
- Identify use cases from context (e.g., "for gaming", "for office work")
- Separate hard requirements from soft preferences
- Generate 3-5 diverse search queries that cover different aspects of the request
- Return ONLY valid JSON, no additional text or markdown formatting`

// Marketplace search URL templates; one pair per search phrase.
const (
	amazonSearchURL  = "https://www.amazon.com/s?k=%s"
	bestbuySearchURL = "https://www.bestbuy.com/site/searchpage.jsp?st=%s"
)

// maxSearchPhrases caps how many phrases feed URL generation.
const maxSearchPhrases = 5

// QueryParser parses natural language product queries into structured
// intent and derives marketplace search URLs from it.
type QueryParser struct {
	client llm.Client
}

// NewQueryParser creates a QueryParser over the given completion client.
func NewQueryParser(client llm.Client) *QueryParser {
	return &QueryParser{client: client}
}

// ParseQuery extracts structured intent from a free-text query. When the
// model omits search_queries, fallback phrases derived from the raw text
// are substituted so URL generation always has input.
func (p *QueryParser) ParseQuery(ctx context.Context, queryText string) (*entity.ParsedIntent, error) {
	slog.Info("Parsing query", "query", truncateForLog(queryText, 100))

	raw, err := p.client.Complete(ctx, queryParsePrompt, "Parse this product search query: "+queryText)
	if err != nil {
		return nil, fmt.Errorf("parse query completion: %w", err)
	}

	var intent entity.ParsedIntent
	if err := jsonx.DecodeObject(raw, &intent); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}

	if len(intent.SearchQueries) == 0 {
		intent.SearchQueries = fallbackQueries(queryText)
	}

	slog.Info("Query parsed", "product_type", intent.ProductType, "search_queries", len(intent.SearchQueries))
	return &intent, nil
}

// GenerateSearchURLs derives marketplace search URLs from parsed intent:
// two URLs per phrase, marketplace pair adjacent, in phrase order.
func (p *QueryParser) GenerateSearchURLs(intent *entity.ParsedIntent) []string {
	phrases := intent.SearchQueries
	if len(phrases) > maxSearchPhrases {
		phrases = phrases[:maxSearchPhrases]
	}

	urls := make([]string, 0, 2*len(phrases))
	for _, phrase := range phrases {
		encoded := url.QueryEscape(phrase)
		urls = append(urls, fmt.Sprintf(amazonSearchURL, encoded))
		urls = append(urls, fmt.Sprintf(bestbuySearchURL, encoded))
	}

	slog.Info("Generated search URLs", "count", len(urls))
	return urls
}

// fallbackQueries builds basic search phrases when the model returns none.
func fallbackQueries(queryText string) []string {
	base := strings.TrimSpace(queryText)
	return []string{
		base,
		"best " + base,
		base + " top rated",
	}
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
