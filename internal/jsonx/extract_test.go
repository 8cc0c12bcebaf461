package jsonx

import (
	"errors"
	"strings"
	"testing"
)

type intentDoc struct {
	ProductType   string   `json:"product_type"`
	SearchQueries []string `json:"search_queries"`
}

const bareObject = `{"product_type": "headphones", "search_queries": ["wireless headphones", "bluetooth headphones"]}`

func fence(s, lang string) string {
	return "```" + lang + "\n" + s + "\n```"
}

func TestDecodeObjectFenceIdempotence(t *testing.T) {
	// The same document must decode identically through 0, 1, or 2 layers
	// of markdown fencing.
	tests := []struct {
		name string
		raw  string
	}{
		{"bare", bareObject},
		{"json fence", fence(bareObject, "json")},
		{"plain fence", fence(bareObject, "")},
		{"double fence", fence(fence(bareObject, "json"), "")},
		{"fence with prose", "Here is the parsed intent:\n\n" + fence(bareObject, "json") + "\n\nLet me know if you need more."},
		{"prose around bare object", "Sure! The intent is " + bareObject + " as requested."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc intentDoc
			if err := DecodeObject(tt.raw, &doc); err != nil {
				t.Fatalf("DecodeObject: %v", err)
			}
			if doc.ProductType != "headphones" {
				t.Errorf("product_type = %q, want %q", doc.ProductType, "headphones")
			}
			if len(doc.SearchQueries) != 2 {
				t.Errorf("search_queries len = %d, want 2", len(doc.SearchQueries))
			}
		})
	}
}

func TestDecodeObjectLongestCandidateWins(t *testing.T) {
	// Several object-looking spans: the full document must be preferred
	// over the short fragment.
	raw := `Note {"partial": true} follows. Full answer: {"product_type": "laptop", "search_queries": ["gaming laptop"], "nested": {"a": 1}}`

	var doc intentDoc
	if err := DecodeObject(raw, &doc); err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if doc.ProductType != "laptop" {
		t.Errorf("product_type = %q, want %q", doc.ProductType, "laptop")
	}
}

func TestDecodeObjectBracketsInsideStrings(t *testing.T) {
	raw := `prefix {"name": "curly } brace", "url": "https://x.test/a{b}"} suffix`

	var doc map[string]any
	if err := DecodeObject(raw, &doc); err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if doc["name"] != "curly } brace" {
		t.Errorf("name = %q", doc["name"])
	}
}

func TestDecodeObjectFailure(t *testing.T) {
	long := strings.Repeat("no json here ", 40)
	var doc map[string]any
	err := DecodeObject(long, &doc)
	if err == nil {
		t.Fatal("expected error")
	}
	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractError, got %T", err)
	}
	if len(extractErr.Text) > errTextPrefixLen {
		t.Errorf("error text length %d exceeds cap %d", len(extractErr.Text), errTextPrefixLen)
	}
}

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
	}{
		{"bare array", `[{"name":"A"},{"name":"B"}]`, 2},
		{"fenced array", fence(`[{"name":"A"},{"name":"B"},{"name":"C"}]`, "json"), 3},
		{"array in prose", `Extracted these products: [{"name":"A"}] from the page.`, 1},
		{"bare object coerced", `{"name":"Solo"}`, 1},
		{"fenced object coerced", fence(`{"name":"Solo"}`, ""), 1},
		{"empty array", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []map[string]any
			if err := DecodeArray(tt.raw, &items); err != nil {
				t.Fatalf("DecodeArray: %v", err)
			}
			if len(items) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(items), tt.wantLen)
			}
		})
	}
}

func TestDecodeArrayFailure(t *testing.T) {
	var items []map[string]any
	if err := DecodeArray("the page had no structured data", &items); err == nil {
		t.Fatal("expected error")
	}
}
