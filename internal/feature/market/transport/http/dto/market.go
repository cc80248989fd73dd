// Package dto はmarketフィーチャーのHTTP/WebSocket用データ転送オブジェクトを定義します。
package dto

import (
	"time"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	"smg_backend/internal/feature/stocks/domain/entity"
)

// MarketStateResponse は GET /market のレスポンスです。
type MarketStateResponse struct {
	IsOpen                  bool      `json:"is_open"`
	SnapshotCount           int       `json:"snapshot_count"`
	AfterHoursSnapshotCount int       `json:"after_hours_snapshot_count"`
	MarketDayCount          int       `json:"market_day_count"`
	SnapshotsPerMarketDay   int       `json:"snapshots_per_market_day"`
	AfterHoursSnapshots     int       `json:"after_hours_snapshots"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// NewMarketStateResponse は MarketState とライフサイクル設定からレスポンスを組み立てます。
func NewMarketStateResponse(s entity.MarketState, snapshotsPerDay, afterHours int) MarketStateResponse {
	return MarketStateResponse{
		IsOpen:                  s.IsOpen,
		SnapshotCount:           s.SnapshotCount,
		AfterHoursSnapshotCount: s.AfterHoursSnapshotCount,
		MarketDayCount:          s.MarketDayCount,
		SnapshotsPerMarketDay:   snapshotsPerDay,
		AfterHoursSnapshots:     afterHours,
		UpdatedAt:               s.UpdatedAt,
	}
}

// MarketEventResponse はディスプレイへ配信するマーケットイベントです。
// percent_change はパーセント表記です。
type MarketEventResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Ticker         string    `json:"ticker,omitempty"`
	Title          string    `json:"title,omitempty"`
	Price          float64   `json:"price,omitempty"`
	PreviousPrice  *float64  `json:"previous_price,omitempty"`
	PreviousTicker string    `json:"previous_ticker,omitempty"`
	PercentChange  *float64  `json:"percent_change,omitempty"`
	MarketDay      int       `json:"market_day,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMarketEventResponse はイベントをレスポンス形式に変換します。
func NewMarketEventResponse(e marketentity.MarketEvent) MarketEventResponse {
	out := MarketEventResponse{
		ID:             e.ID,
		Kind:           string(e.Kind),
		Ticker:         e.Ticker,
		Title:          e.Title,
		Price:          e.Price,
		PreviousPrice:  e.PreviousPrice,
		PreviousTicker: e.PreviousTicker,
		MarketDay:      e.MarketDay,
		CreatedAt:      e.CreatedAt,
	}
	if e.PercentChange != nil {
		pct := *e.PercentChange * 100
		out.PercentChange = &pct
	}
	return out
}
