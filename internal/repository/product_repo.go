package repository

import (
	"context"

	"github.com/user/buysmart-service/internal/entity"
)

// ProductRepository defines the interface for storing extracted products.
type ProductRepository interface {
	// Create persists one extracted product linked to a crawl session.
	Create(ctx context.Context, product *entity.Product) error
	// UpdateEnrichment stores the ranking stage's per-product fields.
	UpdateEnrichment(ctx context.Context, id string, score float64, pros, cons []string, summary string) error
	// FindByQueryID retrieves all products for a query, best score first.
	FindByQueryID(ctx context.Context, queryID string) ([]*entity.Product, error)
}
