package repository

import (
	"context"
	"errors"

	"github.com/user/buysmart-service/internal/entity"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// QueryRepository defines the interface for storing and retrieving product queries.
type QueryRepository interface {
	// Create persists a new query in pending status.
	Create(ctx context.Context, query *entity.ProductQuery) error
	// FindByID retrieves a query by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*entity.ProductQuery, error)
	// UpdateStatus sets the status and error message of a query.
	UpdateStatus(ctx context.Context, id, status, errorMessage string) error
	// UpdateParsedIntent stores the parsed intent on a query.
	UpdateParsedIntent(ctx context.Context, id string, intent *entity.ParsedIntent) error
	// UpdateTotalResults records how many products the pipeline found.
	UpdateTotalResults(ctx context.Context, id string, total int) error
}
