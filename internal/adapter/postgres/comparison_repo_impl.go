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

// ComparisonRepoImpl provides a concrete implementation for the ComparisonRepository interface using PostgreSQL.
type ComparisonRepoImpl struct {
	db *pgxpool.Pool
}

// NewComparisonRepo creates a new instance of ComparisonRepoImpl.
func NewComparisonRepo(db *pgxpool.Pool) *ComparisonRepoImpl {
	return &ComparisonRepoImpl{db: db}
}

// Create persists a comparison result. The query_id UNIQUE constraint
// enforces the one-comparison-per-query invariant; a row left behind by a
// run that failed mid-persist is replaced, its rankings cleared, and the
// surviving row id written back to the entity.
func (r *ComparisonRepoImpl) Create(ctx context.Context, comparison *entity.ComparisonResult) error {
	criteriaJSON, err := json.Marshal(comparison.RankingCriteria)
	if err != nil {
		return fmt.Errorf("encode ranking_criteria: %w", err)
	}
	sql := `
		INSERT INTO comparison_results (id, query_id, llm_reasoning, llm_recommendation, ranking_criteria, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (query_id) DO UPDATE
		SET llm_reasoning = EXCLUDED.llm_reasoning,
		    llm_recommendation = EXCLUDED.llm_recommendation,
		    ranking_criteria = EXCLUDED.ranking_criteria,
		    created_at = NOW()
		RETURNING id;
	`
	var id string
	if err := r.db.QueryRow(ctx, sql,
		comparison.ID,
		comparison.QueryID,
		comparison.LLMReasoning,
		comparison.LLMRecommendation,
		criteriaJSON,
	).Scan(&id); err != nil {
		return fmt.Errorf("upsert comparison: %w", err)
	}
	comparison.ID = id

	if _, err := r.db.Exec(ctx, `DELETE FROM product_rankings WHERE comparison_id = $1;`, id); err != nil {
		return fmt.Errorf("clear stale rankings: %w", err)
	}
	return nil
}

// CreateRankings persists ranking rows for a comparison in one batch.
func (r *ComparisonRepoImpl) CreateRankings(ctx context.Context, rankings []*entity.ProductRanking) error {
	if len(rankings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ranking := range rankings {
		breakdownJSON, err := json.Marshal(ranking.ScoreBreakdown)
		if err != nil {
			return fmt.Errorf("encode score_breakdown for rank %d: %w", ranking.Rank, err)
		}
		batch.Queue(`
			INSERT INTO product_rankings (id, comparison_id, product_id, rank, reasoning, score_breakdown, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW());`,
			ranking.ID,
			ranking.ComparisonID,
			ranking.ProductID,
			ranking.Rank,
			ranking.Reasoning,
			breakdownJSON,
		)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert rankings batch: %w", err)
	}
	return nil
}

// FindByQueryID retrieves the comparison for a query with its rankings.
func (r *ComparisonRepoImpl) FindByQueryID(ctx context.Context, queryID string) (*entity.ComparisonResult, []*entity.ProductRanking, error) {
	sql := `
		SELECT id, query_id, llm_reasoning, llm_recommendation, ranking_criteria, created_at
		FROM comparison_results
		WHERE query_id = $1;
	`
	row := r.db.QueryRow(ctx, sql, queryID)

	var c entity.ComparisonResult
	var criteriaJSON []byte
	err := row.Scan(&c.ID, &c.QueryID, &c.LLMReasoning, &c.LLMRecommendation, &criteriaJSON, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan comparison: %w", err)
	}
	if err := json.Unmarshal(criteriaJSON, &c.RankingCriteria); err != nil {
		return nil, nil, fmt.Errorf("decode ranking_criteria: %w", err)
	}

	rankingSQL := `
		SELECT id, comparison_id, product_id, rank, reasoning, score_breakdown, created_at
		FROM product_rankings
		WHERE comparison_id = $1
		ORDER BY rank ASC;
	`
	rows, err := r.db.Query(ctx, rankingSQL, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("query rankings: %w", err)
	}
	defer rows.Close()

	var rankings []*entity.ProductRanking
	for rows.Next() {
		var pr entity.ProductRanking
		var breakdownJSON []byte
		if err := rows.Scan(&pr.ID, &pr.ComparisonID, &pr.ProductID, &pr.Rank, &pr.Reasoning, &breakdownJSON, &pr.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan ranking: %w", err)
		}
		if len(breakdownJSON) > 0 {
			if err := json.Unmarshal(breakdownJSON, &pr.ScoreBreakdown); err != nil {
				return nil, nil, fmt.Errorf("decode score_breakdown: %w", err)
			}
		}
		rankings = append(rankings, &pr)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &c, rankings, nil
}
