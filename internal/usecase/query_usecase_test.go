package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/repository"
)

func newQueryManager(queryRepo *fakeQueryRepo, comparisonRepo *fakeComparisonRepo) QueryManager {
	return NewQueryUseCase(queryRepo, &fakeSessionRepo{}, &fakeProductRepo{}, comparisonRepo)
}

func TestCreateQueryValidation(t *testing.T) {
	tests := []struct {
		name      string
		queryText string
		wantErr   error
	}{
		{"valid", "a gaming laptop under $1500", nil},
		{"valid after trim", "  gaming laptop  ", nil},
		{"too short", "tv", ErrQueryTooShort},
		{"whitespace only", "        ", ErrQueryTooShort},
		{"short after trim", "  abc  ", ErrQueryTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeQueryRepo()
			uc := newQueryManager(repo, &fakeComparisonRepo{})

			query, err := uc.Create(context.Background(), tt.queryText)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if query.Status != entity.QueryStatusPending {
				t.Errorf("Status = %q, want pending", query.Status)
			}
			if query.QueryText != strings.TrimSpace(tt.queryText) {
				t.Errorf("QueryText = %q, want trimmed input", query.QueryText)
			}
			if query.ID == "" {
				t.Error("ID not assigned")
			}
			if _, ok := repo.queries[query.ID]; !ok {
				t.Error("query not persisted")
			}
		})
	}
}

func TestResultStateMachine(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"pending", entity.QueryStatusPending, ErrResultNotReady},
		{"processing", entity.QueryStatusProcessing, ErrResultPending},
		{"failed", entity.QueryStatusFailed, ErrQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := pendingQuery("q1")
			query.Status = tt.status
			query.ErrorMessage = "boom"
			uc := newQueryManager(newFakeQueryRepo(query), &fakeComparisonRepo{})

			_, err := uc.Result(context.Background(), "q1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Result() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResultFailedCarriesMessage(t *testing.T) {
	query := pendingQuery("q1")
	query.Status = entity.QueryStatusFailed
	query.ErrorMessage = "ranking stage: model unavailable"
	uc := newQueryManager(newFakeQueryRepo(query), &fakeComparisonRepo{})

	_, err := uc.Result(context.Background(), "q1")
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("Result() error = %v, want the recorded failure message", err)
	}
}

func TestResultCompleted(t *testing.T) {
	query := pendingQuery("q1")
	query.Status = entity.QueryStatusCompleted
	comparisonRepo := &fakeComparisonRepo{
		comparison: &entity.ComparisonResult{ID: "c1", QueryID: "q1"},
		rankings:   []*entity.ProductRanking{{ComparisonID: "c1", ProductID: "p1", Rank: 1}},
	}
	uc := newQueryManager(newFakeQueryRepo(query), comparisonRepo)

	result, err := uc.Result(context.Background(), "q1")
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if result.Comparison.ID != "c1" || len(result.Rankings) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestResultCompletedWithoutComparison(t *testing.T) {
	// Status says completed but no comparison row exists. Treated the same
	// as a query that never ran.
	query := pendingQuery("q1")
	query.Status = entity.QueryStatusCompleted
	uc := newQueryManager(newFakeQueryRepo(query), &fakeComparisonRepo{})

	if _, err := uc.Result(context.Background(), "q1"); !errors.Is(err, ErrResultNotReady) {
		t.Errorf("Result() error = %v, want ErrResultNotReady", err)
	}
}

func TestResultUnknownQuery(t *testing.T) {
	uc := newQueryManager(newFakeQueryRepo(), &fakeComparisonRepo{})

	if _, err := uc.Result(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Result() error = %v, want ErrNotFound", err)
	}
}
