package adapters

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// marketStateID is the primary key of the singleton market state row.
const marketStateID = 1

// marketStateRepository persists the singleton MarketState row.
type marketStateRepository struct {
	db *gorm.DB
}

// NewMarketStateRepository creates a market state repository backed by db.
func NewMarketStateRepository(db *gorm.DB) *marketStateRepository {
	return &marketStateRepository{db: db}
}

// Get returns the market state, creating the first-boot state if the row is missing.
func (r *marketStateRepository) Get(ctx context.Context) (entity.MarketState, error) {
	var m MarketStateModel
	err := r.db.WithContext(ctx).Where("id = ?", marketStateID).First(&m).Error
	if err == nil {
		return m.toEntity(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.MarketState{}, err
	}

	initial := entity.NewMarketState()
	m = MarketStateModel{ID: marketStateID, IsOpen: initial.IsOpen}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.MarketState{}, err
	}
	slog.Info("created initial market state")
	return m.toEntity(), nil
}

// Save overwrites the singleton row with state.
func (r *marketStateRepository) Save(ctx context.Context, state entity.MarketState) error {
	m := MarketStateModel{
		ID:                      marketStateID,
		IsOpen:                  state.IsOpen,
		SnapshotCount:           state.SnapshotCount,
		AfterHoursSnapshotCount: state.AfterHoursSnapshotCount,
		MarketDayCount:          state.MarketDayCount,
		UpdatedAt:               state.UpdatedAt,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}
