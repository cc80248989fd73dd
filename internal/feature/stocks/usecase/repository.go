// Package usecase implements the admin and read-side business logic of the stocks feature.
package usecase

import (
	"context"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// MutateFunc receives the locked, current stock and returns its new price.
// Returning an error aborts the mutation; nothing is written.
type MutateFunc func(s *entity.Stock) (float64, error)

// StockRepository abstracts persistence of stock rows.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockRepository interface {
	Create(ctx context.Context, s *entity.Stock) error
	FindByTicker(ctx context.Context, ticker string) (*entity.Stock, error)
	List(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error)
	ListAll(ctx context.Context) ([]entity.Stock, error)
	ListActive(ctx context.Context) ([]entity.Stock, error)

	// Mutate atomically applies fn under the ticker's lock and appends one
	// PriceEvent of the given change type in the same transaction.
	Mutate(ctx context.Context, ticker string, change entity.ChangeType, fn MutateFunc) (*entity.Stock, error)
	// TryMutate is Mutate that fails with domain.ErrLockContention instead of waiting.
	TryMutate(ctx context.Context, ticker string, change entity.ChangeType, fn MutateFunc) (*entity.Stock, error)
	// OpenSession sets reference/max/min price to the current price.
	OpenSession(ctx context.Context, ticker string) (*entity.Stock, error)
	SetActive(ctx context.Context, ticker string, active bool) (*entity.Stock, error)
	UpdateRankings(ctx context.Context, rankings []entity.Ranking) error
}

// HistoryRepository abstracts the snapshot ring log and the price event log.
type HistoryRepository interface {
	AppendSnapshots(ctx context.Context, snapshots []entity.StockSnapshot) error
	PruneSnapshots(ctx context.Context, ticker string, keep int) (int64, error)
	ListSnapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error)
	ListPriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error)
}

// StockPublisher pushes a single changed stock to connected displays.
type StockPublisher interface {
	PublishStock(s entity.Stock)
}
