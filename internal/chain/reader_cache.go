package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for cached on-chain snapshots.
const cachedCardKeyPrefix = "chain:card:"

// CachedReader is a Redis read-through cache in front of another Reader.
// On-chain cards are immutable once written, so a time-bounded cache cannot
// serve stale data; the TTL only bounds memory, not correctness.
type CachedReader struct {
	inner  Reader
	client *redis.Client
	ttl    time.Duration
}

func NewCachedReader(inner Reader, client *redis.Client, ttl time.Duration) *CachedReader {
	return &CachedReader{inner: inner, client: client, ttl: ttl}
}

func (r *CachedReader) GetCard(ctx context.Context, onChainID uint64) (*OnChainCard, error) {
	key := fmt.Sprintf("%s%d", cachedCardKeyPrefix, onChainID)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var card OnChainCard
		if err := json.Unmarshal(raw, &card); err == nil {
			return &card, nil
		}
		// Corrupt entry: fall through to the inner reader and overwrite.
	} else if !errors.Is(err, redis.Nil) {
		// Cache trouble must not take reads down; go straight upstream.
		return r.inner.GetCard(ctx, onChainID)
	}

	card, err := r.inner.GetCard(ctx, onChainID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(card); err == nil {
		// Best effort; a failed SET just means a cache miss next time.
		_ = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	return card, nil
}
