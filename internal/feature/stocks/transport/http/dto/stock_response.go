package dto

import (
	"time"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// StockResponse は銘柄のレスポンスDTOです。
type StockResponse struct {
	Ticker             string     `json:"ticker"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	IsActive           bool       `json:"is_active"`
	Price              float64    `json:"price"`
	MaxPrice           *float64   `json:"max_price"`
	MinPrice           *float64   `json:"min_price"`
	ReferencePrice     *float64   `json:"reference_price"`
	ReferencePriceAt   *time.Time `json:"reference_price_at"`
	PercentageChange   *float64   `json:"percentage_change"` // 基準価格からの変化率（%）
	Rank               *int       `json:"rank"`
	PreviousRank       *int       `json:"previous_rank"`
	ChangeRank         *int       `json:"change_rank"`
	PreviousChangeRank *int       `json:"previous_change_rank"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewStockResponse はエンティティをレスポンスDTOに変換します。
func NewStockResponse(s entity.Stock) StockResponse {
	out := StockResponse{
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
	if pct, ok := s.PercentageChange(); ok {
		p := pct * 100
		out.PercentageChange = &p
	}
	return out
}

// NewStockResponses はエンティティのスライスを変換します。nil は空配列になります。
func NewStockResponses(ss []entity.Stock) []StockResponse {
	out := make([]StockResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, NewStockResponse(s))
	}
	return out
}

// SnapshotResponse はチャート用スナップショットのレスポンスDTOです。
type SnapshotResponse struct {
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceEventResponse は価格変更履歴のレスポンスDTOです。
type PriceEventResponse struct {
	ID         uint      `json:"id"`
	Price      float64   `json:"price"`
	ChangeType string    `json:"change_type"`
	CreatedAt  time.Time `json:"created_at"`
}
