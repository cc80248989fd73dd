// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"smg_backend/internal/feature/market/transport/http/dto"
	"smg_backend/internal/feature/market/usecase"
	"smg_backend/internal/feature/stocks/domain/entity"
)

// MarketStateReader は市場状態の読み取りインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketStateReader interface {
	Get(ctx context.Context) (entity.MarketState, error)
}

// MarketHandler は市場状態に関するHTTPリクエストを処理します。
type MarketHandler struct {
	market    MarketStateReader
	lifecycle usecase.LifecycleConfig
}

// NewMarketHandler は新しい MarketHandler を作成します。
func NewMarketHandler(market MarketStateReader, lifecycle usecase.LifecycleConfig) *MarketHandler {
	return &MarketHandler{market: market, lifecycle: lifecycle}
}

// State は現在の市場状態を返します。
//
// エンドポイント例:
// GET /market
func (h *MarketHandler) State(c *gin.Context) {
	state, err := h.market.Get(c.Request.Context())
	if err != nil {
		slog.Error("failed to read market state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.NewMarketStateResponse(state, h.lifecycle.SnapshotsPerMarketDay, h.lifecycle.AfterHoursSnapshots))
}
