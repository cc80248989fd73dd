package dto

// CreateStockRequest は銘柄作成リクエストのDTOです。
type CreateStockRequest struct {
	Ticker       string   `json:"ticker" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	InitialPrice *float64 `json:"initial_price"`
}

// SetPriceRequest は管理者による価格設定リクエストのDTOです。
type SetPriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// SetActiveRequest は取引参加フラグ切り替えリクエストのDTOです。
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
