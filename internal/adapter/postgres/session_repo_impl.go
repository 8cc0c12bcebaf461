package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/buysmart-service/internal/entity"
)

// SessionRepoImpl provides a concrete implementation for the SessionRepository interface using PostgreSQL.
type SessionRepoImpl struct {
	db *pgxpool.Pool
}

// NewSessionRepo creates a new instance of SessionRepoImpl.
func NewSessionRepo(db *pgxpool.Pool) *SessionRepoImpl {
	return &SessionRepoImpl{db: db}
}

// Create persists a new crawl session at crawl-stage start.
func (r *SessionRepoImpl) Create(ctx context.Context, session *entity.CrawlSession) error {
	urlsJSON, err := json.Marshal(session.URLsToCrawl)
	if err != nil {
		return fmt.Errorf("encode urls_to_crawl: %w", err)
	}
	sql := `
		INSERT INTO crawl_sessions (id, query_id, urls_to_crawl, status, started_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := r.db.Exec(ctx, sql, session.ID, session.QueryID, urlsJSON, session.Status, session.StartedAt); err != nil {
		return fmt.Errorf("insert crawl session: %w", err)
	}
	return nil
}

// Finish records the terminal state of a session.
func (r *SessionRepoImpl) Finish(ctx context.Context, session *entity.CrawlSession) error {
	crawledJSON, err := json.Marshal(session.URLsCrawled)
	if err != nil {
		return fmt.Errorf("encode urls_crawled: %w", err)
	}
	failedJSON, err := json.Marshal(session.URLsFailed)
	if err != nil {
		return fmt.Errorf("encode urls_failed: %w", err)
	}
	resultsJSON, err := json.Marshal(session.RawResults)
	if err != nil {
		return fmt.Errorf("encode raw_results: %w", err)
	}
	sql := `
		UPDATE crawl_sessions
		SET urls_crawled = $2, urls_failed = $3, raw_results = $4,
		    status = $5, error_message = $6, completed_at = $7
		WHERE id = $1;
	`
	if _, err := r.db.Exec(ctx, sql,
		session.ID,
		crawledJSON,
		failedJSON,
		resultsJSON,
		session.Status,
		session.ErrorMessage,
		session.CompletedAt,
	); err != nil {
		return fmt.Errorf("finish crawl session: %w", err)
	}
	return nil
}

// FindByQueryID retrieves all sessions for a query, newest first.
func (r *SessionRepoImpl) FindByQueryID(ctx context.Context, queryID string) ([]*entity.CrawlSession, error) {
	sql := `
		SELECT id, query_id, urls_to_crawl, urls_crawled, urls_failed, raw_results,
		       status, error_message, started_at, completed_at
		FROM crawl_sessions
		WHERE query_id = $1
		ORDER BY started_at DESC;
	`
	rows, err := r.db.Query(ctx, sql, queryID)
	if err != nil {
		return nil, fmt.Errorf("query crawl sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.CrawlSession
	for rows.Next() {
		var s entity.CrawlSession
		var toCrawlJSON, crawledJSON, failedJSON, resultsJSON []byte
		if err := rows.Scan(
			&s.ID,
			&s.QueryID,
			&toCrawlJSON,
			&crawledJSON,
			&failedJSON,
			&resultsJSON,
			&s.Status,
			&s.ErrorMessage,
			&s.StartedAt,
			&s.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan crawl session: %w", err)
		}
		if err := json.Unmarshal(toCrawlJSON, &s.URLsToCrawl); err != nil {
			return nil, fmt.Errorf("decode urls_to_crawl: %w", err)
		}
		if err := json.Unmarshal(crawledJSON, &s.URLsCrawled); err != nil {
			return nil, fmt.Errorf("decode urls_crawled: %w", err)
		}
		if err := json.Unmarshal(failedJSON, &s.URLsFailed); err != nil {
			return nil, fmt.Errorf("decode urls_failed: %w", err)
		}
		if len(resultsJSON) > 0 {
			if err := json.Unmarshal(resultsJSON, &s.RawResults); err != nil {
				return nil, fmt.Errorf("decode raw_results: %w", err)
			}
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
