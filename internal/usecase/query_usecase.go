package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/repository"
)

// minQueryLength is the shortest accepted query text after trimming.
const minQueryLength = 5

// Validation and state sentinels surfaced to the HTTP layer.
var (
	ErrQueryTooShort  = errors.New("query text must be at least 5 characters")
	ErrResultPending  = errors.New("query is still processing")
	ErrQueryFailed    = errors.New("query processing failed")
	ErrResultNotReady = errors.New("query has not been processed")
)

// QueryManager defines the read/write surface for queries outside the
// pipeline itself.
type QueryManager interface {
	// Create validates and persists a new query in pending status.
	Create(ctx context.Context, queryText string) (*entity.ProductQuery, error)
	// Get retrieves a query by ID.
	Get(ctx context.Context, id string) (*entity.ProductQuery, error)
	// Result assembles the comparison result of a completed query.
	Result(ctx context.Context, id string) (*QueryResult, error)
	// Sessions lists the crawl sessions of a query, newest first.
	Sessions(ctx context.Context, id string) ([]*entity.CrawlSession, error)
	// Products lists the persisted products of a query, best score first.
	Products(ctx context.Context, id string) ([]*entity.Product, error)
}

// QueryResult is the assembled comparison view of a completed query.
type QueryResult struct {
	Query      *entity.ProductQuery
	Comparison *entity.ComparisonResult
	Rankings   []*entity.ProductRanking
	Products   []*entity.Product
}

type queryUseCase struct {
	queryRepo      repository.QueryRepository
	sessionRepo    repository.SessionRepository
	productRepo    repository.ProductRepository
	comparisonRepo repository.ComparisonRepository
}

// NewQueryUseCase creates a new instance of the query use case.
func NewQueryUseCase(
	queryRepo repository.QueryRepository,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
	comparisonRepo repository.ComparisonRepository,
) QueryManager {
	return &queryUseCase{
		queryRepo:      queryRepo,
		sessionRepo:    sessionRepo,
		productRepo:    productRepo,
		comparisonRepo: comparisonRepo,
	}
}

// Create validates the query text and persists a pending query.
func (uc *queryUseCase) Create(ctx context.Context, queryText string) (*entity.ProductQuery, error) {
	trimmed := strings.TrimSpace(queryText)
	if len(trimmed) < minQueryLength {
		return nil, ErrQueryTooShort
	}

	now := time.Now().UTC()
	query := &entity.ProductQuery{
		ID:        uuid.NewString(),
		QueryText: trimmed,
		Status:    entity.QueryStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.queryRepo.Create(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	return query, nil
}

func (uc *queryUseCase) Get(ctx context.Context, id string) (*entity.ProductQuery, error) {
	return uc.queryRepo.FindByID(ctx, id)
}

// Result assembles the full comparison view. The error communicates the
// query's state: ErrResultPending while processing, ErrQueryFailed for a
// failed query, ErrResultNotReady when the pipeline never ran.
func (uc *queryUseCase) Result(ctx context.Context, id string) (*QueryResult, error) {
	query, err := uc.queryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch query.Status {
	case entity.QueryStatusPending:
		return nil, ErrResultNotReady
	case entity.QueryStatusProcessing:
		return nil, ErrResultPending
	case entity.QueryStatusFailed:
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, query.ErrorMessage)
	}

	comparison, rankings, err := uc.comparisonRepo.FindByQueryID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotReady
		}
		return nil, fmt.Errorf("failed to load comparison: %w", err)
	}

	products, err := uc.productRepo.FindByQueryID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	return &QueryResult{
		Query:      query,
		Comparison: comparison,
		Rankings:   rankings,
		Products:   products,
	}, nil
}

func (uc *queryUseCase) Sessions(ctx context.Context, id string) ([]*entity.CrawlSession, error) {
	if _, err := uc.queryRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.sessionRepo.FindByQueryID(ctx, id)
}

func (uc *queryUseCase) Products(ctx context.Context, id string) ([]*entity.Product, error) {
	if _, err := uc.queryRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.productRepo.FindByQueryID(ctx, id)
}
