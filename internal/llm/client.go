// Package llm provides a minimal completion client over hosted LLM HTTP
// APIs. The pipeline only ever needs one operation: send a system
// instruction plus user content, get free-form text back. Backends differ
// in request shape, not behavior, so they all sit behind Client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/user/buysmart-service/pkg/config"
	"github.com/user/buysmart-service/pkg/metrics"
)

// ErrMissingAPIKey is returned at construction time when no credential is
// configured. It is never retried.
var ErrMissingAPIKey = errors.New("LLM API key is required: set LLM_API_KEY")

// Client sends one system+user exchange to a hosted model and returns the
// raw text of its reply.
type Client interface {
	// Complete performs a single completion call. The returned text may
	// contain JSON wrapped in markdown fencing or prose; callers extract
	// what they need with the jsonx package.
	Complete(ctx context.Context, system, user string) (string, error)
}

// APIError is a non-2xx response from the upstream completion endpoint.
type APIError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// New constructs the backend selected by the configuration.
func New(cfg *config.Config) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.LLMTimeout()}
	switch cfg.LLMProvider {
	case "anthropic":
		return NewAnthropicClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMMaxTokens, httpClient)
	case "openai", "":
		return NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMMaxTokens, httpClient)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// bodyPrefix bounds upstream error bodies carried inside APIError.
func bodyPrefix(b []byte) string {
	const max = 300
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}

// observe records call metrics shared by all backends. Collectors are nil
// until metrics.Init runs, which tests skip.
func observe(backend string, start time.Time, err error) {
	if metrics.LLMCallsTotal == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.LLMCallsTotal.WithLabelValues(backend, status).Inc()
	metrics.LLMCallDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
