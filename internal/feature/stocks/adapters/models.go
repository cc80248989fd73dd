// Package adapters provides gorm-backed repositories for the stocks feature.
package adapters

import (
	"time"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// StockModel is the GORM model for the stocks table.
type StockModel struct {
	Ticker      string `gorm:"primaryKey;size:10"`
	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"type:text;not null;default:''"`
	IsActive    bool   `gorm:"not null;index"`

	Price            float64 `gorm:"not null"`
	MaxPrice         *float64
	MinPrice         *float64
	ReferencePrice   *float64
	ReferencePriceAt *time.Time

	Rank               *int
	PreviousRank       *int
	ChangeRank         *int
	PreviousChangeRank *int

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (StockModel) TableName() string {
	return "stocks"
}

func (m *StockModel) toEntity() entity.Stock {
	return entity.Stock{
		Ticker:             m.Ticker,
		Title:              m.Title,
		Description:        m.Description,
		IsActive:           m.IsActive,
		Price:              m.Price,
		MaxPrice:           m.MaxPrice,
		MinPrice:           m.MinPrice,
		ReferencePrice:     m.ReferencePrice,
		ReferenceAt:        m.ReferencePriceAt,
		Rank:               m.Rank,
		PreviousRank:       m.PreviousRank,
		ChangeRank:         m.ChangeRank,
		PreviousChangeRank: m.PreviousChangeRank,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func stockModelFromEntity(s *entity.Stock) *StockModel {
	return &StockModel{
		Ticker:             s.Ticker,
		Title:              s.Title,
		Description:        s.Description,
		IsActive:           s.IsActive,
		Price:              s.Price,
		MaxPrice:           s.MaxPrice,
		MinPrice:           s.MinPrice,
		ReferencePrice:     s.ReferencePrice,
		ReferencePriceAt:   s.ReferenceAt,
		Rank:               s.Rank,
		PreviousRank:       s.PreviousRank,
		ChangeRank:         s.ChangeRank,
		PreviousChangeRank: s.PreviousChangeRank,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// PriceEventModel is the GORM model for the append-only price_events table.
type PriceEventModel struct {
	ID         uint      `gorm:"primaryKey"`
	Ticker     string    `gorm:"size:10;not null;index:price_event_ticker_time,priority:1"`
	Price      float64   `gorm:"not null"`
	ChangeType string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null;index:price_event_ticker_time,priority:2"`
}

// TableName returns the table name for GORM.
func (PriceEventModel) TableName() string {
	return "price_events"
}

func (m *PriceEventModel) toEntity() entity.PriceEvent {
	return entity.PriceEvent{
		ID:         m.ID,
		Ticker:     m.Ticker,
		Price:      m.Price,
		ChangeType: entity.ChangeType(m.ChangeType),
		CreatedAt:  m.CreatedAt,
	}
}

// StockSnapshotModel is the GORM model for the stock_snapshots table.
type StockSnapshotModel struct {
	ID        uint      `gorm:"primaryKey"`
	Ticker    string    `gorm:"size:10;not null;index:snapshot_ticker_time,priority:1"`
	Price     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:snapshot_ticker_time,priority:2"`
}

// TableName returns the table name for GORM.
func (StockSnapshotModel) TableName() string {
	return "stock_snapshots"
}

func (m *StockSnapshotModel) toEntity() entity.StockSnapshot {
	return entity.StockSnapshot{
		ID:        m.ID,
		Ticker:    m.Ticker,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
	}
}

// MarketStateModel is the GORM model for the singleton market_states row.
type MarketStateModel struct {
	ID                      uint `gorm:"primaryKey"`
	IsOpen                  bool `gorm:"not null"`
	SnapshotCount           int  `gorm:"not null;default:0"`
	AfterHoursSnapshotCount int  `gorm:"not null;default:0"`
	MarketDayCount          int  `gorm:"not null;default:0"`
	UpdatedAt               time.Time
}

// TableName returns the table name for GORM.
func (MarketStateModel) TableName() string {
	return "market_states"
}

func (m *MarketStateModel) toEntity() entity.MarketState {
	return entity.MarketState{
		IsOpen:                  m.IsOpen,
		SnapshotCount:           m.SnapshotCount,
		AfterHoursSnapshotCount: m.AfterHoursSnapshotCount,
		MarketDayCount:          m.MarketDayCount,
		UpdatedAt:               m.UpdatedAt,
	}
}

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{
		&StockModel{},
		&PriceEventModel{},
		&StockSnapshotModel{},
		&MarketStateModel{},
	}
}
