package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/jsonx"
	"github.com/user/buysmart-service/internal/llm"
)

// rankingPrompt asks the model to score and rank a product set against the
// shopper's stated needs.
const rankingPrompt = `You are a product comparison expert. Rank the given products based on how well
they match the user's query and requirements.

Scoring criteria (100 points total):
- price_value (25 points): Value for money relative to the user's budget
- features_match (25 points): How well features match stated requirements
- quality_rating (20 points): Customer ratings and review volume
- brand_reputation (15 points): Brand trustworthiness and reliability
- availability (15 points): Whether the product is in stock

Return a JSON object with this exact structure:

{
    "rankings": [
        {
            "product_index": 0,
            "product_name": "name",
            "score": 87.5,
            "pros": ["pro 1", "pro 2"],
            "cons": ["con 1"],
            "reasoning": "why this rank",
            "price_value_rating": "excellent" or "good" or "fair" or "poor",
            "recommendation": "one sentence recommendation"
        }
    ],
    "overall_summary": "2-3 sentence comparison summary",
    "best_overall": "product name",
    "best_value": "product name",
    "comparison_notes": "notable tradeoffs between the top products"
}

Rules:
- Include every product exactly once in rankings
- product_index refers to the product's position in the input list
- Scores are on a 0-100 scale
- Return ONLY valid JSON, no additional text`

// summaryPrompt asks for a short buyer-facing markdown write-up of a
// completed comparison.
const summaryPrompt = `You are a helpful shopping assistant. Write a concise markdown summary of a
product comparison for the user. Include a heading, the best overall and best
value picks, and a short bulleted rundown of the ranked products with their
scores. Keep it under 300 words. Return ONLY the markdown.`

// ProductRanker ranks crawled products against the user's query and
// produces a buyer-facing comparison summary.
type ProductRanker struct {
	client llm.Client
}

func NewProductRanker(client llm.Client) *ProductRanker {
	return &ProductRanker{client: client}
}

// RankProducts scores products against the query. An empty product list
// short-circuits to a fixed outcome without calling the model. The returned
// rankings are ordered by score, highest first.
func (r *ProductRanker) RankProducts(ctx context.Context, products []entity.RankingProduct, queryText string, intent *entity.ParsedIntent) (*entity.RankingOutcome, error) {
	if len(products) == 0 {
		return &entity.RankingOutcome{
			Rankings:        []entity.RankingEntry{},
			OverallSummary:  "No products found to compare.",
			ComparisonNotes: "No products were available for comparison.",
		}, nil
	}

	user, err := r.buildRankingInput(products, queryText, intent)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.Complete(ctx, rankingPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("ranking completion: %w", err)
	}

	var outcome entity.RankingOutcome
	if err := jsonx.DecodeObject(raw, &outcome); err != nil {
		return nil, fmt.Errorf("parse ranking: %w", err)
	}

	sort.SliceStable(outcome.Rankings, func(i, j int) bool {
		return outcome.Rankings[i].Score > outcome.Rankings[j].Score
	})

	slog.Info("Ranked products", "count", len(outcome.Rankings), "best_overall", outcome.BestOverall)
	return &outcome, nil
}

// ComparisonSummary produces a markdown summary of the comparison. It never
// fails: when the model call or its output is unusable the deterministic
// fallback summary is returned instead.
func (r *ProductRanker) ComparisonSummary(ctx context.Context, products []entity.RankingProduct, outcome *entity.RankingOutcome, queryText string) string {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fallbackSummary(queryText, outcome)
	}

	user := fmt.Sprintf("User query: %s\n\nComparison result:\n%s", queryText, payload)
	raw, err := r.client.Complete(ctx, summaryPrompt, user)
	if err != nil || strings.TrimSpace(raw) == "" {
		slog.Warn("Summary generation failed, using fallback", "error", err)
		return fallbackSummary(queryText, outcome)
	}
	return strings.TrimSpace(raw)
}

// buildRankingInput renders the query, parsed intent, and one text block per
// product into the ranking model's user message.
func (r *ProductRanker) buildRankingInput(products []entity.RankingProduct, queryText string, intent *entity.ParsedIntent) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", queryText)

	if intent != nil {
		intentJSON, err := json.Marshal(intent)
		if err != nil {
			return "", fmt.Errorf("marshal intent: %w", err)
		}
		fmt.Fprintf(&b, "Parsed intent:\n%s\n\n", intentJSON)
	}

	b.WriteString("Products:\n")
	for i, p := range products {
		fmt.Fprintf(&b, "\n[%d] %s\n", i, p.Name)
		if p.Price != nil {
			fmt.Fprintf(&b, "Price: %.2f %s\n", *p.Price, p.Currency)
		} else {
			b.WriteString("Price: unknown\n")
		}
		if p.Rating != nil {
			if p.ReviewCount != nil {
				fmt.Fprintf(&b, "Rating: %.1f (%.0f reviews)\n", *p.Rating, *p.ReviewCount)
			} else {
				fmt.Fprintf(&b, "Rating: %.1f\n", *p.Rating)
			}
		}
		if len(p.Features) > 0 {
			fmt.Fprintf(&b, "Features: %s\n", strings.Join(p.Features, "; "))
		}
		fmt.Fprintf(&b, "Availability: %s\n", p.Availability)
		fmt.Fprintf(&b, "Source: %s\n", p.SourceDomain)
	}
	return b.String(), nil
}

// fallbackSummary builds a plain markdown summary from the ranking outcome
// alone.
func fallbackSummary(queryText string, outcome *entity.RankingOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Product Comparison: %s\n\n", queryText)
	if outcome.BestOverall != "" {
		fmt.Fprintf(&b, "**Best Overall:** %s\n\n", outcome.BestOverall)
	}
	if outcome.BestValue != "" {
		fmt.Fprintf(&b, "**Best Value:** %s\n\n", outcome.BestValue)
	}
	if len(outcome.Rankings) > 0 {
		b.WriteString("## Rankings\n\n")
		for i, entry := range outcome.Rankings {
			fmt.Fprintf(&b, "%d. **%s** (score: %.1f)", i+1, entry.ProductName, entry.Score)
			if entry.Reasoning != "" {
				fmt.Fprintf(&b, " - %s", entry.Reasoning)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if outcome.OverallSummary != "" {
		fmt.Fprintf(&b, "%s\n", outcome.OverallSummary)
	}
	return strings.TrimRight(b.String(), "\n")
}
