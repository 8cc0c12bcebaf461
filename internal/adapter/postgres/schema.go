package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the bootstrap DDL for all pipeline tables. Raw LLM/crawl
// payloads live in JSONB columns verbatim for audit and debugging.
const schema = `
CREATE TABLE IF NOT EXISTS product_queries (
	id            UUID PRIMARY KEY,
	query_text    TEXT NOT NULL,
	status        VARCHAR(32) NOT NULL DEFAULT 'pending',
	parsed_intent JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	total_results INT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_product_queries_status ON product_queries (status, created_at);

CREATE TABLE IF NOT EXISTS crawl_sessions (
	id            UUID PRIMARY KEY,
	query_id      UUID NOT NULL REFERENCES product_queries(id) ON DELETE CASCADE,
	urls_to_crawl JSONB NOT NULL DEFAULT '[]',
	urls_crawled  JSONB NOT NULL DEFAULT '[]',
	urls_failed   JSONB NOT NULL DEFAULT '[]',
	raw_results   JSONB,
	status        VARCHAR(32) NOT NULL DEFAULT 'crawling',
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_crawl_sessions_query ON crawl_sessions (query_id, started_at DESC);

CREATE TABLE IF NOT EXISTS products (
	id            UUID PRIMARY KEY,
	session_id    UUID NOT NULL REFERENCES crawl_sessions(id) ON DELETE CASCADE,
	name          VARCHAR(500) NOT NULL,
	price         NUMERIC(14,2),
	currency      VARCHAR(3) NOT NULL DEFAULT 'USD',
	url           VARCHAR(1000) NOT NULL DEFAULT '',
	source_domain VARCHAR(255) NOT NULL DEFAULT 'unknown',
	image_url     TEXT NOT NULL DEFAULT '',
	raw_data      JSONB,
	features      JSONB NOT NULL DEFAULT '[]',
	llm_score     DOUBLE PRECISION,
	llm_pros      JSONB,
	llm_cons      JSONB,
	llm_summary   TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_products_session ON products (session_id);

CREATE TABLE IF NOT EXISTS comparison_results (
	id                 UUID PRIMARY KEY,
	query_id           UUID NOT NULL UNIQUE REFERENCES product_queries(id) ON DELETE CASCADE,
	llm_reasoning      TEXT NOT NULL DEFAULT '',
	llm_recommendation TEXT NOT NULL DEFAULT '',
	ranking_criteria   JSONB NOT NULL DEFAULT '{}',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_rankings (
	id              UUID PRIMARY KEY,
	comparison_id   UUID NOT NULL REFERENCES comparison_results(id) ON DELETE CASCADE,
	product_id      UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	rank            INT NOT NULL,
	reasoning       TEXT NOT NULL DEFAULT '',
	score_breakdown JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (comparison_id, rank)
);
`

// Bootstrap creates the tables when they do not exist yet.
func Bootstrap(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
