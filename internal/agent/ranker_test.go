package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/buysmart-service/internal/entity"
)

func floatPtr(f float64) *float64 { return &f }

func TestRankProductsEmptyInput(t *testing.T) {
	client := &fakeClient{}
	ranker := NewProductRanker(client)

	outcome, err := ranker.RankProducts(context.Background(), nil, "a laptop", nil)
	if err != nil {
		t.Fatalf("RankProducts() error = %v", err)
	}
	if client.calls != 0 {
		t.Errorf("client.calls = %d, want 0 for empty input", client.calls)
	}
	if outcome.OverallSummary != "No products found to compare." {
		t.Errorf("OverallSummary = %q", outcome.OverallSummary)
	}
	if outcome.ComparisonNotes != "No products were available for comparison." {
		t.Errorf("ComparisonNotes = %q", outcome.ComparisonNotes)
	}
	if len(outcome.Rankings) != 0 {
		t.Errorf("Rankings = %v, want empty", outcome.Rankings)
	}
}

func TestRankProductsSortsByScore(t *testing.T) {
	client := &fakeClient{responses: []string{`{
		"rankings": [
			{"product_index": 0, "product_name": "Mid", "score": 72.0},
			{"product_index": 1, "product_name": "Top", "score": 91.5},
			{"product_index": 2, "product_name": "Low", "score": 55.0}
		],
		"overall_summary": "Three laptops compared.",
		"best_overall": "Top",
		"best_value": "Mid"
	}`}}
	ranker := NewProductRanker(client)

	products := []entity.RankingProduct{
		{Name: "Mid", Price: floatPtr(899), Currency: "USD", Availability: "in stock", SourceDomain: "www.amazon.com"},
		{Name: "Top", Price: floatPtr(1299), Currency: "USD", Rating: floatPtr(4.8), Availability: "in stock", SourceDomain: "www.bestbuy.com"},
		{Name: "Low", Availability: "unknown", SourceDomain: "www.amazon.com"},
	}
	outcome, err := ranker.RankProducts(context.Background(), products, "a laptop", &entity.ParsedIntent{ProductType: "laptop"})
	if err != nil {
		t.Fatalf("RankProducts() error = %v", err)
	}

	wantOrder := []string{"Top", "Mid", "Low"}
	if len(outcome.Rankings) != len(wantOrder) {
		t.Fatalf("got %d rankings, want %d", len(outcome.Rankings), len(wantOrder))
	}
	for i, name := range wantOrder {
		if outcome.Rankings[i].ProductName != name {
			t.Errorf("Rankings[%d].ProductName = %q, want %q", i, outcome.Rankings[i].ProductName, name)
		}
	}
	if outcome.BestOverall != "Top" {
		t.Errorf("BestOverall = %q, want %q", outcome.BestOverall, "Top")
	}

	// The user message carries the query, the intent, and each product block.
	user := client.users[0]
	for _, want := range []string{"a laptop", `"product_type":"laptop"`, "[0] Mid", "[1] Top", "[2] Low", "Price: 1299.00 USD"} {
		if !strings.Contains(user, want) {
			t.Errorf("ranking input missing %q", want)
		}
	}
}

func TestRankProductsCompletionError(t *testing.T) {
	ranker := NewProductRanker(&fakeClient{err: errors.New("model unavailable")})

	products := []entity.RankingProduct{{Name: "Only", Availability: "unknown"}}
	if _, err := ranker.RankProducts(context.Background(), products, "a laptop", nil); err == nil {
		t.Fatal("RankProducts() expected error, got nil")
	}
}

func TestComparisonSummaryFromModel(t *testing.T) {
	client := &fakeClient{responses: []string{"# Laptop Comparison\n\nThe Top wins."}}
	ranker := NewProductRanker(client)

	outcome := &entity.RankingOutcome{BestOverall: "Top", BestValue: "Mid"}
	got := ranker.ComparisonSummary(context.Background(), nil, outcome, "a laptop")
	if got != "# Laptop Comparison\n\nThe Top wins." {
		t.Errorf("ComparisonSummary() = %q", got)
	}
}

func TestComparisonSummaryFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("model unavailable")}
	ranker := NewProductRanker(client)

	outcome := &entity.RankingOutcome{
		Rankings: []entity.RankingEntry{
			{ProductName: "Top", Score: 91.5, Reasoning: "excellent balance"},
			{ProductName: "Mid", Score: 72.0},
		},
		OverallSummary: "Two laptops compared.",
		BestOverall:    "Top",
		BestValue:      "Mid",
	}
	got := ranker.ComparisonSummary(context.Background(), nil, outcome, "a laptop")

	for _, want := range []string{
		"# Product Comparison: a laptop",
		"**Best Overall:** Top",
		"**Best Value:** Mid",
		"1. **Top** (score: 91.5) - excellent balance",
		"2. **Mid** (score: 72.0)",
		"Two laptops compared.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("fallback summary missing %q:\n%s", want, got)
		}
	}
}
