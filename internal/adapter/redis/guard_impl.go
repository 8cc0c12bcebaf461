package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/buysmart-service/pkg/utils"
)

const processingKeyPrefix = "buysmart:processing:"

// GuardRepoImpl provides a concrete implementation for the
// ProcessingGuardRepository interface using Redis.
type GuardRepoImpl struct {
	client *redis.Client
}

// NewGuardRepo creates a new instance of GuardRepoImpl.
func NewGuardRepo(client *redis.Client) *GuardRepoImpl {
	return &GuardRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a given query ID.
func (r *GuardRepoImpl) generateKey(queryID string) string {
	return fmt.Sprintf("%s%s", processingKeyPrefix, utils.HashURL(queryID))
}

// Acquire takes the per-query processing lock. SETNX is atomic, so only
// one of two concurrent triggers wins; the expiry bounds lock leakage
// after a crash.
func (r *GuardRepoImpl) Acquire(ctx context.Context, queryID string, expiry time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.generateKey(queryID), "1", expiry).Result()
}

// Release frees the lock once the pipeline reaches a terminal state.
func (r *GuardRepoImpl) Release(ctx context.Context, queryID string) error {
	return r.client.Del(ctx, r.generateKey(queryID)).Err()
}
