package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/buysmart-service/internal/entity"
)

// ProductRepoImpl provides a concrete implementation for the ProductRepository interface using PostgreSQL.
type ProductRepoImpl struct {
	db *pgxpool.Pool
}

// NewProductRepo creates a new instance of ProductRepoImpl.
func NewProductRepo(db *pgxpool.Pool) *ProductRepoImpl {
	return &ProductRepoImpl{db: db}
}

// Create persists one extracted product linked to a crawl session.
func (r *ProductRepoImpl) Create(ctx context.Context, product *entity.Product) error {
	rawJSON, err := json.Marshal(product.RawData)
	if err != nil {
		return fmt.Errorf("encode raw_data: %w", err)
	}
	featuresJSON, err := json.Marshal(product.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	sql := `
		INSERT INTO products (id, session_id, name, price, currency, url, source_domain, image_url, raw_data, features, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW());
	`
	if _, err := r.db.Exec(ctx, sql,
		product.ID,
		product.SessionID,
		product.Name,
		product.Price,
		product.Currency,
		product.URL,
		product.SourceDomain,
		product.ImageURL,
		rawJSON,
		featuresJSON,
	); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateEnrichment stores the ranking stage's per-product fields.
func (r *ProductRepoImpl) UpdateEnrichment(ctx context.Context, id string, score float64, pros, cons []string, summary string) error {
	prosJSON, err := json.Marshal(pros)
	if err != nil {
		return fmt.Errorf("encode llm_pros: %w", err)
	}
	consJSON, err := json.Marshal(cons)
	if err != nil {
		return fmt.Errorf("encode llm_cons: %w", err)
	}
	sql := `
		UPDATE products
		SET llm_score = $2, llm_pros = $3, llm_cons = $4, llm_summary = $5, updated_at = NOW()
		WHERE id = $1;
	`
	if _, err := r.db.Exec(ctx, sql, id, score, prosJSON, consJSON, summary); err != nil {
		return fmt.Errorf("update product enrichment: %w", err)
	}
	return nil
}

// FindByQueryID retrieves all products for a query, best score first.
func (r *ProductRepoImpl) FindByQueryID(ctx context.Context, queryID string) ([]*entity.Product, error) {
	sql := `
		SELECT p.id, p.session_id, p.name, p.price, p.currency, p.url, p.source_domain, p.image_url,
		       p.raw_data, p.features, p.llm_score, p.llm_pros, p.llm_cons, p.llm_summary,
		       p.created_at, p.updated_at
		FROM products p
		JOIN crawl_sessions s ON s.id = p.session_id
		WHERE s.query_id = $1
		ORDER BY p.llm_score DESC NULLS LAST, p.created_at DESC;
	`
	rows, err := r.db.Query(ctx, sql, queryID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		var p entity.Product
		var rawJSON, featuresJSON, prosJSON, consJSON []byte
		if err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.Name,
			&p.Price,
			&p.Currency,
			&p.URL,
			&p.SourceDomain,
			&p.ImageURL,
			&rawJSON,
			&featuresJSON,
			&p.LLMScore,
			&prosJSON,
			&consJSON,
			&p.LLMSummary,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if len(rawJSON) > 0 {
			if err := json.Unmarshal(rawJSON, &p.RawData); err != nil {
				return nil, fmt.Errorf("decode raw_data: %w", err)
			}
		}
		if len(featuresJSON) > 0 {
			if err := json.Unmarshal(featuresJSON, &p.Features); err != nil {
				return nil, fmt.Errorf("decode features: %w", err)
			}
		}
		if len(prosJSON) > 0 {
			if err := json.Unmarshal(prosJSON, &p.LLMPros); err != nil {
				return nil, fmt.Errorf("decode llm_pros: %w", err)
			}
		}
		if len(consJSON) > 0 {
			if err := json.Unmarshal(consJSON, &p.LLMCons); err != nil {
				return nil, fmt.Errorf("decode llm_cons: %w", err)
			}
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
