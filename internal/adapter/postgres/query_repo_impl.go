package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/repository"
)

// QueryRepoImpl provides a concrete implementation for the QueryRepository interface using PostgreSQL.
type QueryRepoImpl struct {
	db *pgxpool.Pool
}

// NewQueryRepo creates a new instance of QueryRepoImpl.
func NewQueryRepo(db *pgxpool.Pool) *QueryRepoImpl {
	return &QueryRepoImpl{db: db}
}

// Create persists a new query row.
func (r *QueryRepoImpl) Create(ctx context.Context, query *entity.ProductQuery) error {
	sql := `
		INSERT INTO product_queries (id, query_text, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW());
	`
	_, err := r.db.Exec(ctx, sql, query.ID, query.QueryText, query.Status)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}

// FindByID retrieves a query by its ID.
func (r *QueryRepoImpl) FindByID(ctx context.Context, id string) (*entity.ProductQuery, error) {
	sql := `
		SELECT id, query_text, status, parsed_intent, error_message, total_results, created_at, updated_at
		FROM product_queries
		WHERE id = $1;
	`
	row := r.db.QueryRow(ctx, sql, id)

	var q entity.ProductQuery
	var intentJSON []byte
	err := row.Scan(
		&q.ID,
		&q.QueryText,
		&q.Status,
		&intentJSON,
		&q.ErrorMessage,
		&q.TotalResults,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan query: %w", err)
	}

	if len(intentJSON) > 0 {
		var intent entity.ParsedIntent
		if err := json.Unmarshal(intentJSON, &intent); err != nil {
			return nil, fmt.Errorf("decode parsed_intent: %w", err)
		}
		q.ParsedIntent = &intent
	}
	return &q, nil
}

// UpdateStatus sets the status and error message of a query.
func (r *QueryRepoImpl) UpdateStatus(ctx context.Context, id, status, errorMessage string) error {
	sql := `
		UPDATE product_queries
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1;
	`
	_, err := r.db.Exec(ctx, sql, id, status, errorMessage)
	if err != nil {
		return fmt.Errorf("update query status: %w", err)
	}
	return nil
}

// UpdateParsedIntent stores the parsed intent on a query.
func (r *QueryRepoImpl) UpdateParsedIntent(ctx context.Context, id string, intent *entity.ParsedIntent) error {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode parsed_intent: %w", err)
	}
	sql := `
		UPDATE product_queries
		SET parsed_intent = $2, updated_at = NOW()
		WHERE id = $1;
	`
	if _, err := r.db.Exec(ctx, sql, id, intentJSON); err != nil {
		return fmt.Errorf("update parsed_intent: %w", err)
	}
	return nil
}

// UpdateTotalResults records how many products the pipeline found.
func (r *QueryRepoImpl) UpdateTotalResults(ctx context.Context, id string, total int) error {
	sql := `
		UPDATE product_queries
		SET total_results = $2, updated_at = NOW()
		WHERE id = $1;
	`
	_, err := r.db.Exec(ctx, sql, id, total)
	if err != nil {
		return fmt.Errorf("update total_results: %w", err)
	}
	return nil
}
