package adapters

import (
	"context"

	"gorm.io/gorm"

	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/feature/stocks/usecase"
)

// historyRepository stores chart snapshots and reads the price event log.
type historyRepository struct {
	db *gorm.DB
}

var _ usecase.HistoryRepository = (*historyRepository)(nil)

// NewHistoryRepository creates a snapshot/price-event repository backed by db.
func NewHistoryRepository(db *gorm.DB) *historyRepository {
	return &historyRepository{db: db}
}

// AppendSnapshots inserts one snapshot row per element in a single batch.
func (r *historyRepository) AppendSnapshots(ctx context.Context, snapshots []entity.StockSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	ms := make([]StockSnapshotModel, 0, len(snapshots))
	for _, s := range snapshots {
		ms = append(ms, StockSnapshotModel{Ticker: s.Ticker, Price: s.Price, CreatedAt: s.CreatedAt})
	}
	return r.db.WithContext(ctx).Create(&ms).Error
}

// PruneSnapshots keeps the newest keep snapshots of ticker and deletes the rest.
func (r *historyRepository) PruneSnapshots(ctx context.Context, ticker string, keep int) (int64, error) {
	db := r.db.WithContext(ctx)
	if keep <= 0 {
		res := db.Where("ticker = ?", ticker).Delete(&StockSnapshotModel{})
		return res.RowsAffected, res.Error
	}
	newest := db.Model(&StockSnapshotModel{}).
		Select("id").
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		Order("id DESC").
		Limit(keep)
	res := db.Where("ticker = ? AND id NOT IN (?)", ticker, newest).Delete(&StockSnapshotModel{})
	return res.RowsAffected, res.Error
}

// ListSnapshots returns the newest limit snapshots of ticker, oldest first.
func (r *historyRepository) ListSnapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error) {
	var rows []StockSnapshotModel
	q := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.StockSnapshot, len(rows))
	for i := range rows {
		out[len(rows)-1-i] = rows[i].toEntity()
	}
	return out, nil
}

// ListPriceEvents returns the newest limit price events of ticker, newest first.
func (r *historyRepository) ListPriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error) {
	var rows []PriceEventModel
	q := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.PriceEvent, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}
