// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	marketadapters "smg_backend/internal/feature/market/adapters"
	marketusecase "smg_backend/internal/feature/market/usecase"
	stocksadapters "smg_backend/internal/feature/stocks/adapters"
	stocksusecase "smg_backend/internal/feature/stocks/usecase"
	"smg_backend/internal/platform/cache"
)

// NewEventStateStore creates the market event detector's state store.
// If Redis is available, it returns a Redis-backed implementation so that
// watermarks survive restarts. Otherwise, it falls back to process memory.
func NewEventStateStore(rdb *redis.Client) marketusecase.EventStateStore {
	if rdb != nil {
		return marketadapters.NewEventStateRedis(rdb, "market_events")
	}
	return marketadapters.NewEventStateMemory()
}

// NewHistoryRepository creates the snapshot and price event repository,
// wrapped with a Redis cache for chart reads when Redis is available.
func NewHistoryRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) stocksusecase.HistoryRepository {
	repo := stocksadapters.NewHistoryRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingSnapshotRepository(rdb, ttl, repo, "snapshots")
}
