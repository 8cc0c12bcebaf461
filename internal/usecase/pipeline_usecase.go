package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/buysmart-service/internal/entity"
	"github.com/user/buysmart-service/internal/repository"
	"github.com/user/buysmart-service/pkg/metrics"
	"github.com/user/buysmart-service/pkg/utils"
)

// Fatal pipeline conditions.
var (
	ErrNoSearchURLs      = errors.New("no search URLs could be generated")
	ErrNoProducts        = errors.New("no products were extracted from any page")
	ErrAlreadyProcessing = errors.New("query is already being processed")
	ErrAlreadyCompleted  = errors.New("query has already been processed")
)

// QueryParser turns free text into structured intent and search URLs.
type QueryParser interface {
	ParseQuery(ctx context.Context, queryText string) (*entity.ParsedIntent, error)
	GenerateSearchURLs(intent *entity.ParsedIntent) []string
}

// ProductCrawler crawls a URL batch and returns one result per URL.
type ProductCrawler interface {
	CrawlURLs(ctx context.Context, urls []string) ([]entity.PageResult, error)
}

// ProductRanker ranks persisted products and summarizes the comparison.
type ProductRanker interface {
	RankProducts(ctx context.Context, products []entity.RankingProduct, queryText string, intent *entity.ParsedIntent) (*entity.RankingOutcome, error)
	ComparisonSummary(ctx context.Context, products []entity.RankingProduct, outcome *entity.RankingOutcome, queryText string) string
}

// PipelineRunner defines the interface for the end-to-end query pipeline.
type PipelineRunner interface {
	// Process runs the full pipeline for a query. Safe to call again on a
	// failed query; a processing query returns ErrAlreadyProcessing.
	Process(ctx context.Context, queryID string) (*entity.PipelineResult, error)
}

type pipelineUseCase struct {
	queryRepo      repository.QueryRepository
	sessionRepo    repository.SessionRepository
	productRepo    repository.ProductRepository
	comparisonRepo repository.ComparisonRepository
	guardRepo      repository.ProcessingGuardRepository
	parser         QueryParser
	crawler        ProductCrawler
	ranker         ProductRanker
	guardTTL       time.Duration
}

// NewPipelineUseCase creates a new instance of the pipeline use case.
func NewPipelineUseCase(
	queryRepo repository.QueryRepository,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
	comparisonRepo repository.ComparisonRepository,
	guardRepo repository.ProcessingGuardRepository,
	parser QueryParser,
	crawler ProductCrawler,
	ranker ProductRanker,
	guardTTL time.Duration,
) PipelineRunner {
	return &pipelineUseCase{
		queryRepo:      queryRepo,
		sessionRepo:    sessionRepo,
		productRepo:    productRepo,
		comparisonRepo: comparisonRepo,
		guardRepo:      guardRepo,
		parser:         parser,
		crawler:        crawler,
		ranker:         ranker,
		guardTTL:       guardTTL,
	}
}

// Process runs the seven pipeline stages for one query. Any stage error
// marks the query failed with its message and returns a failure payload
// alongside the error.
func (uc *pipelineUseCase) Process(ctx context.Context, queryID string) (*entity.PipelineResult, error) {
	query, err := uc.queryRepo.FindByID(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if query.Status == entity.QueryStatusProcessing {
		return nil, ErrAlreadyProcessing
	}
	if query.Status == entity.QueryStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	acquired, err := uc.guardRepo.Acquire(ctx, queryID, uc.guardTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire processing guard: %w", err)
	}
	if !acquired {
		return nil, ErrAlreadyProcessing
	}
	defer func() {
		if err := uc.guardRepo.Release(context.WithoutCancel(ctx), queryID); err != nil {
			slog.Warn("Failed to release processing guard", "query_id", queryID, "error", err)
		}
	}()

	if err := uc.queryRepo.UpdateStatus(ctx, queryID, entity.QueryStatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("failed to mark query processing: %w", err)
	}

	result, err := uc.run(ctx, query)
	if err != nil {
		slog.Error("Pipeline failed", "query_id", queryID, "error", err)
		observePipeline("failure")
		if updateErr := uc.queryRepo.UpdateStatus(ctx, queryID, entity.QueryStatusFailed, err.Error()); updateErr != nil {
			slog.Error("Failed to mark query failed", "query_id", queryID, "error", updateErr)
		}
		return &entity.PipelineResult{
			QueryID: queryID,
			Status:  entity.QueryStatusFailed,
			Error:   err.Error(),
		}, err
	}

	observePipeline("success")
	return result, nil
}

// run executes the pipeline stages against a query already marked
// processing. The caller owns status bookkeeping on failure.
func (uc *pipelineUseCase) run(ctx context.Context, query *entity.ProductQuery) (*entity.PipelineResult, error) {
	// Stage 1: parse the query into structured intent.
	stageStart := time.Now()
	intent, err := uc.parser.ParseQuery(ctx, query.QueryText)
	if err != nil {
		return nil, fmt.Errorf("parse stage: %w", err)
	}
	if err := uc.queryRepo.UpdateParsedIntent(ctx, query.ID, intent); err != nil {
		return nil, fmt.Errorf("failed to persist parsed intent: %w", err)
	}
	observeStage("parse", stageStart)

	// Stage 2: derive marketplace search URLs.
	urls := uc.parser.GenerateSearchURLs(intent)
	if len(urls) == 0 {
		return nil, ErrNoSearchURLs
	}

	// Stage 3: crawl every URL within one session.
	stageStart = time.Now()
	session := &entity.CrawlSession{
		ID:          uuid.NewString(),
		QueryID:     query.ID,
		URLsToCrawl: urls,
		Status:      entity.SessionStatusCrawling,
		StartedAt:   time.Now().UTC(),
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create crawl session: %w", err)
	}

	pageResults, crawlErr := uc.crawler.CrawlURLs(ctx, urls)
	uc.classifyCrawl(session, pageResults, crawlErr)
	if err := uc.sessionRepo.Finish(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to finish crawl session: %w", err)
	}
	if crawlErr != nil {
		return nil, fmt.Errorf("crawl stage: %w", crawlErr)
	}
	observeStage("crawl", stageStart)

	// Stage 4: persist extracted products.
	stageStart = time.Now()
	products, rankingProducts := uc.persistProducts(ctx, session.ID, pageResults)
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	observeStage("persist", stageStart)

	// Stage 5: rank.
	stageStart = time.Now()
	outcome, err := uc.ranker.RankProducts(ctx, rankingProducts, query.QueryText, intent)
	if err != nil {
		return nil, fmt.Errorf("ranking stage: %w", err)
	}
	observeStage("rank", stageStart)

	// Stage 6: persist the comparison and per-product rankings.
	stageStart = time.Now()
	comparison, err := uc.persistComparison(ctx, query.ID, products, outcome)
	if err != nil {
		return nil, err
	}
	observeStage("compare", stageStart)

	// Stage 7: summary and terminal bookkeeping.
	summary := uc.ranker.ComparisonSummary(ctx, rankingProducts, outcome, query.QueryText)
	if err := uc.queryRepo.UpdateTotalResults(ctx, query.ID, len(products)); err != nil {
		return nil, fmt.Errorf("failed to record total results: %w", err)
	}
	if err := uc.queryRepo.UpdateStatus(ctx, query.ID, entity.QueryStatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("failed to mark query completed: %w", err)
	}

	slog.Info("Pipeline completed", "query_id", query.ID, "products", len(products))
	return &entity.PipelineResult{
		QueryID:       query.ID,
		Status:        entity.QueryStatusCompleted,
		ProductsFound: len(products),
		ComparisonID:  comparison.ID,
		Summary:       summary,
		Rankings:      outcome.Rankings,
		BestOverall:   outcome.BestOverall,
		BestValue:     outcome.BestValue,
	}, nil
}

// classifyCrawl folds per-URL results into the session's terminal state.
func (uc *pipelineUseCase) classifyCrawl(session *entity.CrawlSession, results []entity.PageResult, crawlErr error) {
	for _, r := range results {
		if r.Success {
			session.URLsCrawled = append(session.URLsCrawled, r.URL)
		} else {
			session.URLsFailed = append(session.URLsFailed, entity.FailedURL{URL: r.URL, Error: r.Error})
		}
	}
	session.RawResults = results

	now := time.Now().UTC()
	session.CompletedAt = &now
	if crawlErr != nil {
		session.Status = entity.SessionStatusFailed
		session.ErrorMessage = crawlErr.Error()
		return
	}
	session.Status = entity.SessionStatusCompleted
}

// persistProducts stores every extracted product of every successful page
// and accumulates the ranker's product view in the same order. A single
// save failure is logged and skipped.
func (uc *pipelineUseCase) persistProducts(ctx context.Context, sessionID string, results []entity.PageResult) ([]*entity.Product, []entity.RankingProduct) {
	var products []*entity.Product
	var rankingProducts []entity.RankingProduct

	for _, result := range results {
		if !result.Success {
			continue
		}
		for _, raw := range result.Products {
			product := buildProduct(sessionID, raw)
			if err := uc.productRepo.Create(ctx, product); err != nil {
				slog.Warn("Failed to save product", "name", product.Name, "error", err)
				continue
			}
			products = append(products, product)
			rankingProducts = append(rankingProducts, buildRankingProduct(product, raw))
		}
	}
	return products, rankingProducts
}

// persistComparison stores the ComparisonResult and one ProductRanking per
// ranked entry, enriching each resolved product's llm_* fields. Entries
// whose product_index resolves to nothing are logged and skipped.
func (uc *pipelineUseCase) persistComparison(ctx context.Context, queryID string, products []*entity.Product, outcome *entity.RankingOutcome) (*entity.ComparisonResult, error) {
	comparison := &entity.ComparisonResult{
		ID:                uuid.NewString(),
		QueryID:           queryID,
		LLMReasoning:      outcome.OverallSummary,
		LLMRecommendation: fmt.Sprintf("Best Overall: %s\nBest Value: %s", outcome.BestOverall, outcome.BestValue),
		RankingCriteria:   entity.RankingCriteriaWeights(),
		CreatedAt:         time.Now().UTC(),
	}
	if err := uc.comparisonRepo.Create(ctx, comparison); err != nil {
		return nil, fmt.Errorf("failed to save comparison: %w", err)
	}

	var rankings []*entity.ProductRanking
	for i, entry := range outcome.Rankings {
		// A missing product_index falls back to the entry's position in
		// the sorted ranking.
		idx := i
		if entry.ProductIndex != nil {
			idx = *entry.ProductIndex
		}
		if idx < 0 || idx >= len(products) {
			slog.Warn("Ranking entry references unknown product", "product_index", idx, "name", entry.ProductName)
			continue
		}
		product := products[idx]

		if err := uc.productRepo.UpdateEnrichment(ctx, product.ID, entry.Score, entry.Pros, entry.Cons, entry.Reasoning); err != nil {
			slog.Warn("Failed to enrich product", "product_id", product.ID, "error", err)
		}

		rankings = append(rankings, &entity.ProductRanking{
			ID:           uuid.NewString(),
			ComparisonID: comparison.ID,
			ProductID:    product.ID,
			Rank:         i + 1,
			Reasoning:    entry.Reasoning,
			ScoreBreakdown: entity.ScoreBreakdown{
				OverallScore:     entry.Score,
				PriceValueRating: entry.PriceValueRating,
				Pros:             entry.Pros,
				Cons:             entry.Cons,
			},
			CreatedAt: time.Now().UTC(),
		})
	}
	if len(rankings) > 0 {
		if err := uc.comparisonRepo.CreateRankings(ctx, rankings); err != nil {
			return nil, fmt.Errorf("failed to save rankings: %w", err)
		}
	}
	return comparison, nil
}

// buildProduct maps one raw extracted record to a persistable Product,
// normalizing its price and truncating to the schema's column limits.
func buildProduct(sessionID string, raw entity.ExtractedProduct) *entity.Product {
	var price *float64
	if v, ok := utils.ParsePrice(raw["price"]); ok {
		price = &v
	}

	now := time.Now().UTC()
	return &entity.Product{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Name:         utils.Truncate(raw.String("name", "Unknown Product"), entity.ProductNameMaxLen),
		Price:        price,
		Currency:     utils.Truncate(raw.String("currency", "USD"), entity.ProductCurrencyMaxLen),
		URL:          utils.Truncate(raw.String("url", ""), entity.ProductURLMaxLen),
		SourceDomain: utils.Truncate(raw.String("source_domain", "unknown"), entity.ProductDomainMaxLen),
		ImageURL:     utils.Truncate(raw.String("image_url", ""), entity.ProductURLMaxLen),
		RawData:      raw,
		Features:     raw.Strings("features"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// buildRankingProduct derives the ranker's view from a persisted product
// plus the raw fields the products table does not carry.
func buildRankingProduct(product *entity.Product, raw entity.ExtractedProduct) entity.RankingProduct {
	rp := entity.RankingProduct{
		ID:           product.ID,
		Name:         product.Name,
		Price:        product.Price,
		Currency:     product.Currency,
		URL:          product.URL,
		SourceDomain: product.SourceDomain,
		Features:     product.Features,
		Availability: raw.String("availability", "unknown"),
	}
	if v, ok := raw.Number("rating"); ok {
		rp.Rating = &v
	}
	if v, ok := raw.Number("review_count"); ok {
		rp.ReviewCount = &v
	}
	return rp
}

func observePipeline(outcome string) {
	if metrics.PipelineRunsTotal == nil {
		return
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
}

func observeStage(stage string, start time.Time) {
	if metrics.PipelineStageDuration == nil {
		return
	}
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
