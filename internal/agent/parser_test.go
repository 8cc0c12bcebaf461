package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/buysmart-service/internal/entity"
)

// fakeClient returns canned completions in order and records every call.
type fakeClient struct {
	responses []string
	err       error
	calls     int
	systems   []string
	users     []string
}

func (f *fakeClient) Complete(_ context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantType    string
		wantQueries []string
	}{
		{
			name: "clean json",
			response: `{"product_type": "laptop", "price_max": 1500,
				"search_queries": ["gaming laptop", "laptop rtx 4060"]}`,
			wantType:    "laptop",
			wantQueries: []string{"gaming laptop", "laptop rtx 4060"},
		},
		{
			name: "fenced json with prose",
			response: "Here is the parsed intent:\n```json\n" +
				`{"product_type": "headphones", "search_queries": ["wireless headphones"]}` +
				"\n```\nLet me know if you need anything else.",
			wantType:    "headphones",
			wantQueries: []string{"wireless headphones"},
		},
		{
			name:        "missing search queries falls back to raw text",
			response:    `{"product_type": "monitor"}`,
			wantType:    "monitor",
			wantQueries: []string{"a 4k monitor", "best a 4k monitor", "a 4k monitor top rated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{responses: []string{tt.response}}
			parser := NewQueryParser(client)

			intent, err := parser.ParseQuery(context.Background(), "a 4k monitor")
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}
			if intent.ProductType != tt.wantType {
				t.Errorf("ProductType = %q, want %q", intent.ProductType, tt.wantType)
			}
			if len(intent.SearchQueries) != len(tt.wantQueries) {
				t.Fatalf("SearchQueries = %v, want %v", intent.SearchQueries, tt.wantQueries)
			}
			for i, q := range tt.wantQueries {
				if intent.SearchQueries[i] != q {
					t.Errorf("SearchQueries[%d] = %q, want %q", i, intent.SearchQueries[i], q)
				}
			}
		})
	}
}

func TestParseQueryCompletionError(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}
	parser := NewQueryParser(client)

	if _, err := parser.ParseQuery(context.Background(), "a 4k monitor"); err == nil {
		t.Fatal("ParseQuery() expected error, got nil")
	}
}

func TestParseQueryUnparseableResponse(t *testing.T) {
	client := &fakeClient{responses: []string{"I could not parse that query, sorry."}}
	parser := NewQueryParser(client)

	if _, err := parser.ParseQuery(context.Background(), "a 4k monitor"); err == nil {
		t.Fatal("ParseQuery() expected error, got nil")
	}
}

func TestGenerateSearchURLs(t *testing.T) {
	parser := NewQueryParser(&fakeClient{})
	intent := &entity.ParsedIntent{SearchQueries: []string{"gaming laptop", "laptop rtx 4060"}}

	urls := parser.GenerateSearchURLs(intent)
	want := []string{
		"https://www.amazon.com/s?k=gaming+laptop",
		"https://www.bestbuy.com/site/searchpage.jsp?st=gaming+laptop",
		"https://www.amazon.com/s?k=laptop+rtx+4060",
		"https://www.bestbuy.com/site/searchpage.jsp?st=laptop+rtx+4060",
	}
	if len(urls) != len(want) {
		t.Fatalf("GenerateSearchURLs() returned %d URLs, want %d", len(urls), len(want))
	}
	for i, u := range want {
		if urls[i] != u {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], u)
		}
	}
}

func TestGenerateSearchURLsCapsPhrases(t *testing.T) {
	parser := NewQueryParser(&fakeClient{})
	intent := &entity.ParsedIntent{SearchQueries: []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"}}

	urls := parser.GenerateSearchURLs(intent)
	if len(urls) != 10 {
		t.Errorf("GenerateSearchURLs() returned %d URLs, want 10", len(urls))
	}
	if !strings.Contains(urls[0], "q1") || !strings.Contains(urls[9], "q5") {
		t.Errorf("unexpected URL ordering: first %q, last %q", urls[0], urls[9])
	}
}
