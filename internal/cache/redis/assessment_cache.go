package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const defaultAssessmentTTL = 5 * time.Minute

// AssessmentCache stores the latest assessment per token as a JSON string
// at "assessment:{token}" with a fixed TTL.
type AssessmentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAssessmentCache creates a cache backed by c. A non-positive ttl uses
// five minutes.
func NewAssessmentCache(c *Client, ttl time.Duration) *AssessmentCache {
	if ttl <= 0 {
		ttl = defaultAssessmentTTL
	}
	return &AssessmentCache{rdb: c.rdb, ttl: ttl}
}

func assessmentKey(token string) string {
	return "assessment:" + features.NormalizeAddress(token)
}

// TTL returns the expiry applied on Set.
func (ac *AssessmentCache) TTL() time.Duration {
	return ac.ttl
}

// Set stores a under its token.
func (ac *AssessmentCache) Set(ctx context.Context, a risk.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redis: marshal assessment %s: %w", a.Token, err)
	}
	if err := ac.rdb.Set(ctx, assessmentKey(a.Token), data, ac.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set assessment %s: %w", a.Token, err)
	}
	return nil
}

// Get returns the cached assessment for token, or storage.ErrNotFound.
func (ac *AssessmentCache) Get(ctx context.Context, token string) (risk.Assessment, error) {
	data, err := ac.rdb.Get(ctx, assessmentKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return risk.Assessment{}, storage.ErrNotFound
		}
		return risk.Assessment{}, fmt.Errorf("redis: get assessment %s: %w", token, err)
	}

	var a risk.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return risk.Assessment{}, fmt.Errorf("redis: unmarshal assessment %s: %w", token, err)
	}
	return a, nil
}

// Invalidate drops the cached assessment for token.
func (ac *AssessmentCache) Invalidate(ctx context.Context, token string) error {
	if err := ac.rdb.Del(ctx, assessmentKey(token)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate assessment %s: %w", token, err)
	}
	return nil
}
