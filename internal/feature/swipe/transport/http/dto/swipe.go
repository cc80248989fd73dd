package dto

// SwipeRequest はスワイプリクエストのDTOです。
type SwipeRequest struct {
	Ticker    string `json:"ticker" binding:"required"`
	Direction string `json:"direction" binding:"required"` // left|right|down|up
	Token     string `json:"token"`                        // 前回のレスポンスで受け取ったトークン（初回は空）
}

// SwipeResponse はスワイプ結果のレスポンスDTOです。
type SwipeResponse struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Token  string  `json:"token"`
}
