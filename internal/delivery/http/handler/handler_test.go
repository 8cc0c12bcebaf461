package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/repository"
	"github.com/user/buysmart-service/internal/usecase"
)

type fakeQueryManager struct {
	query    *entity.ProductQuery
	result   *usecase.QueryResult
	sessions []*entity.CrawlSession
	products []*entity.Product
	err      error
}

func (f *fakeQueryManager) Create(_ context.Context, queryText string) (*entity.ProductQuery, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ProductQuery{ID: "q1", QueryText: strings.TrimSpace(queryText), Status: entity.QueryStatusPending}, nil
}

func (f *fakeQueryManager) Get(_ context.Context, _ string) (*entity.ProductQuery, error) {
	return f.query, f.err
}

func (f *fakeQueryManager) Result(_ context.Context, _ string) (*usecase.QueryResult, error) {
	return f.result, f.err
}

func (f *fakeQueryManager) Sessions(_ context.Context, _ string) ([]*entity.CrawlSession, error) {
	return f.sessions, f.err
}

func (f *fakeQueryManager) Products(_ context.Context, _ string) ([]*entity.Product, error) {
	return f.products, f.err
}

type fakePipeline struct {
	result *entity.PipelineResult
	err    error
}

func (f *fakePipeline) Process(_ context.Context, _ string) (*entity.PipelineResult, error) {
	return f.result, f.err
}

func okPing(_ context.Context) error { return nil }

func newTestRouter(queries usecase.QueryManager, pipeline usecase.PipelineRunner, pgPing, redisPing PingFunc) http.Handler {
	h := NewHandler(queries, pipeline, pgPing, redisPing)
	r := chi.NewRouter()
	r.Get("/api/health", h.HandleHealthCheck)
	r.Post("/api/queries", h.HandleCreateQuery)
	r.Get("/api/queries/{id}", h.HandleGetQuery)
	r.Post("/api/queries/{id}/process", h.HandleProcessQuery)
	r.Get("/api/queries/{id}/result", h.HandleGetQueryResult)
	r.Get("/api/queries/{id}/sessions", h.HandleGetQuerySessions)
	r.Get("/api/products", h.HandleListProducts)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateQuery(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
	}{
		{"valid query", `{"query_text": "a gaming laptop"}`, nil, http.StatusCreated},
		{"too short", `{"query_text": "tv"}`, usecase.ErrQueryTooShort, http.StatusBadRequest},
		{"malformed body", `{"query_text": `, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeQueryManager{err: tt.createErr}, &fakePipeline{}, okPing, okPing)
			rec := doRequest(t, router, http.MethodPost, "/api/queries", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleProcessQuery(t *testing.T) {
	completedResult := &entity.PipelineResult{
		QueryID: "q1", Status: entity.QueryStatusCompleted, ProductsFound: 3, BestOverall: "Legion 5",
	}
	failedResult := &entity.PipelineResult{
		QueryID: "q1", Status: entity.QueryStatusFailed, Error: "ranking stage: model unavailable",
	}

	tests := []struct {
		name       string
		pipeline   *fakePipeline
		wantStatus int
		wantInBody string
	}{
		{"completed run", &fakePipeline{result: completedResult}, http.StatusOK, `"best_overall":"Legion 5"`},
		{"failed run returns payload", &fakePipeline{result: failedResult, err: errors.New("ranking stage: model unavailable")}, http.StatusOK, `"status":"failed"`},
		{"unknown query", &fakePipeline{err: repository.ErrNotFound}, http.StatusNotFound, "Query not found"},
		{"already processing", &fakePipeline{err: usecase.ErrAlreadyProcessing}, http.StatusConflict, ""},
		{"already completed", &fakePipeline{err: usecase.ErrAlreadyCompleted}, http.StatusOK, "Query already processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeQueryManager{}, tt.pipeline, okPing, okPing)
			rec := doRequest(t, router, http.MethodPost, "/api/queries/q1/process", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantInBody != "" && !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestHandleGetQueryResult(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"still processing", usecase.ErrResultPending, http.StatusAccepted},
		{"failed query", usecase.ErrQueryFailed, http.StatusBadRequest},
		{"never processed", usecase.ErrResultNotReady, http.StatusNotFound},
		{"unknown query", repository.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeQueryManager{err: tt.err}, &fakePipeline{}, okPing, okPing)
			rec := doRequest(t, router, http.MethodGet, "/api/queries/q1/result", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleGetQueryResultCompleted(t *testing.T) {
	price := 1299.0
	manager := &fakeQueryManager{result: &usecase.QueryResult{
		Query: &entity.ProductQuery{ID: "q1", QueryText: "a gaming laptop", Status: entity.QueryStatusCompleted, TotalResults: 1},
		Comparison: &entity.ComparisonResult{
			ID: "c1", QueryID: "q1",
			LLMRecommendation: "Best Overall: Legion 5\nBest Value: Legion 5",
			RankingCriteria:   entity.RankingCriteriaWeights(),
		},
		Rankings: []*entity.ProductRanking{
			{ComparisonID: "c1", ProductID: "p1", Rank: 1, ScoreBreakdown: entity.ScoreBreakdown{OverallScore: 88}},
		},
		Products: []*entity.Product{{ID: "p1", Name: "Legion 5", Price: &price, Currency: "USD"}},
	}}
	router := newTestRouter(manager, &fakePipeline{}, okPing, okPing)

	rec := doRequest(t, router, http.MethodGet, "/api/queries/q1/result", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["query_id"] != "q1" || body["status"] != "completed" {
		t.Errorf("unexpected result payload: %v", body)
	}
	if rankings, ok := body["rankings"].([]any); !ok || len(rankings) != 1 {
		t.Errorf("rankings = %v, want 1 entry", body["rankings"])
	}
}

func TestHandleListProducts(t *testing.T) {
	router := newTestRouter(&fakeQueryManager{products: []*entity.Product{{ID: "p1", Name: "Legion 5"}}}, &fakePipeline{}, okPing, okPing)

	rec := doRequest(t, router, http.MethodGet, "/api/products?query_id=q1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status without query_id = %d, want 400", rec.Code)
	}
}

func TestHandleHealthCheck(t *testing.T) {
	downPing := func(_ context.Context) error { return errors.New("connection refused") }

	router := newTestRouter(&fakeQueryManager{}, &fakePipeline{}, okPing, okPing)
	rec := doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", rec.Code)
	}

	router = newTestRouter(&fakeQueryManager{}, &fakePipeline{}, okPing, downPing)
	rec = doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"down"`) {
		t.Errorf("body %q missing redis down marker", rec.Body.String())
	}
}
