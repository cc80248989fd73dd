// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/feature/stocks/usecase"
)

// CachingSnapshotRepository decorates a HistoryRepository with Redis caching
// of chart snapshots. Price events are always read from the inner repository.
type CachingSnapshotRepository struct {
	inner     usecase.HistoryRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.HistoryRepository = (*CachingSnapshotRepository)(nil)

// NewCachingSnapshotRepository decorates a HistoryRepository with Redis caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "snapshots".
// A nil rdb disables caching.
func NewCachingSnapshotRepository(rdb *redis.Client, ttl time.Duration, inner usecase.HistoryRepository, namespace string) *CachingSnapshotRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "snapshots"
	}
	return &CachingSnapshotRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// AppendSnapshots inserts snapshots and invalidates the cached charts of every affected ticker.
func (c *CachingSnapshotRepository) AppendSnapshots(ctx context.Context, snapshots []entity.StockSnapshot) error {
	if err := c.inner.AppendSnapshots(ctx, snapshots); err != nil {
		return err
	}
	if c.rdb == nil || len(snapshots) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, s := range snapshots {
		if _, ok := seen[s.Ticker]; ok {
			continue
		}
		seen[s.Ticker] = struct{}{}
		_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(s.Ticker)+"*") // Best effort
	}
	return nil
}

// PruneSnapshots deletes old snapshots and invalidates the ticker's cached charts when rows were removed.
func (c *CachingSnapshotRepository) PruneSnapshots(ctx context.Context, ticker string, keep int) (int64, error) {
	n, err := c.inner.PruneSnapshots(ctx, ticker, keep)
	if err != nil {
		return n, err
	}
	if c.rdb != nil && n > 0 {
		_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(ticker)+"*")
	}
	return n, nil
}

// ListSnapshots returns snapshots, checking cache first then falling back to the database.
func (c *CachingSnapshotRepository) ListSnapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error) {
	if c.rdb == nil {
		return c.inner.ListSnapshots(ctx, ticker, limit)
	}

	key := c.cacheKey(ticker, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.StockSnapshot
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.ListSnapshots(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// ListPriceEvents is not cached; every price mutation appends an event.
func (c *CachingSnapshotRepository) ListPriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error) {
	return c.inner.ListPriceEvents(ctx, ticker, limit)
}

func (c *CachingSnapshotRepository) cacheKey(ticker string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(ticker), limit)
}

func (c *CachingSnapshotRepository) cacheKeyPrefix(ticker string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(ticker))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingSnapshotRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
