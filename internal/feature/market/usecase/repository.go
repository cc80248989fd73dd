// Package usecase implements the periodic market jobs: the random price
// tick, and the snapshot pass that ranks stocks, drives the open/close
// lifecycle and detects market events.
package usecase

import (
	"context"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	"smg_backend/internal/feature/stocks/domain/entity"
	stocksusecase "smg_backend/internal/feature/stocks/usecase"
)

// StockStore is the part of the stock repository the jobs use.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockStore interface {
	ListAll(ctx context.Context) ([]entity.Stock, error)
	ListActive(ctx context.Context) ([]entity.Stock, error)
	TryMutate(ctx context.Context, ticker string, change entity.ChangeType, fn stocksusecase.MutateFunc) (*entity.Stock, error)
	OpenSession(ctx context.Context, ticker string) (*entity.Stock, error)
	UpdateRankings(ctx context.Context, rankings []entity.Ranking) error
}

// SnapshotStore appends and prunes chart snapshots.
type SnapshotStore interface {
	AppendSnapshots(ctx context.Context, snapshots []entity.StockSnapshot) error
	PruneSnapshots(ctx context.Context, ticker string, keep int) (int64, error)
}

// MarketStateStore persists the singleton MarketState.
type MarketStateStore interface {
	Get(ctx context.Context) (entity.MarketState, error)
	Save(ctx context.Context, state entity.MarketState) error
}

// Broadcaster hands job results to the push layer. Implementations must not block.
type Broadcaster interface {
	PublishStocks(stocks []entity.Stock)
	PublishEvents(events []marketentity.MarketEvent)
}
