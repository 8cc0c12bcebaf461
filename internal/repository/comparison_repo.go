package repository

import (
	"context"

	"github.com/user/buysmart-service/internal/entity"
)

// ComparisonRepository defines the interface for storing comparison
// results and their per-product ranking rows.
type ComparisonRepository interface {
	// Create persists a comparison result. A query has at most one; an
	// existing row for the same query is replaced with its rankings
	// cleared, and the surviving row id is written back to the entity.
	Create(ctx context.Context, comparison *entity.ComparisonResult) error
	// CreateRankings persists ranking rows for a comparison in one batch.
	CreateRankings(ctx context.Context, rankings []*entity.ProductRanking) error
	// FindByQueryID retrieves the comparison for a query with its
	// rankings, or ErrNotFound when the query has not completed.
	FindByQueryID(ctx context.Context, queryID string) (*entity.ComparisonResult, []*entity.ProductRanking, error)
}
