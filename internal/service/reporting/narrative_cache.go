package reporting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const narrativeKeyPrefix = "swiftcheckout:narrative:"

// NarrativeCache stores generated narratives keyed by a fingerprint of the summary.
// A nil client disables caching.
type NarrativeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNarrativeCache constructs a cache helper.
func NewNarrativeCache(client *redis.Client, ttl time.Duration) *NarrativeCache {
	return &NarrativeCache{client: client, ttl: ttl}
}

// Get reports whether a narrative was cached for key.
func (c *NarrativeCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c == nil || c.client == nil || key == "" {
		return "", false, nil
	}
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set stores the narrative with the configured TTL.
func (c *NarrativeCache) Set(ctx context.Context, key, narrative string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Set(ctx, key, narrative, c.ttl).Err()
}

// narrativeKey fingerprints the summary and currency so that any new sale invalidates the entry.
func narrativeKey(currencyCode string, summary models.SalesSummary) (string, error) {
	payload, err := json.Marshal(struct {
		Currency string              `json:"currency"`
		Summary  models.SalesSummary `json:"summary"`
	}{currencyCode, summary})
	if err != nil {
		return "", fmt.Errorf("marshal summary fingerprint: %w", err)
	}
	sum := sha256.Sum256(payload)
	return narrativeKeyPrefix + hex.EncodeToString(sum[:]), nil
}
