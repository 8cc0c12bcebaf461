package repository

import (
	"context"

	"github.com/user/buysmart-service/internal/entity"
)

// SessionRepository defines the interface for storing crawl sessions.
type SessionRepository interface {
	// Create persists a new crawl session at crawl-stage start.
	Create(ctx context.Context, session *entity.CrawlSession) error
	// Finish records the terminal state of a session: crawled/failed URL
	// sets, raw results, status, and completion time.
	Finish(ctx context.Context, session *entity.CrawlSession) error
	// FindByQueryID retrieves all sessions for a query, newest first.
	FindByQueryID(ctx context.Context, queryID string) ([]*entity.CrawlSession, error)
}
