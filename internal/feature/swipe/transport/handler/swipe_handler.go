// Package handler はswipeフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	stockshandler "smg_backend/internal/feature/stocks/transport/handler"
	"smg_backend/internal/feature/swipe/domain"
	"smg_backend/internal/feature/swipe/transport/http/dto"
	"smg_backend/internal/feature/swipe/usecase"
)

// SwipeUsecase はスワイプ操作のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SwipeUsecase interface {
	Swipe(ctx context.Context, ticker, direction, token string) (*usecase.Result, error)
}

// SwipeHandler はキオスク端末からのスワイプを処理します。
type SwipeHandler struct {
	uc SwipeUsecase
}

// NewSwipeHandler は新しい SwipeHandler を作成します。
func NewSwipeHandler(uc SwipeUsecase) *SwipeHandler {
	return &SwipeHandler{uc: uc}
}

// Swipe はスワイプを1回適用し、新しい価格と更新済みトークンを返します。
// エラー時はトークンを返さないため、クライアントは手元のトークンを使い続けます。
//
// エンドポイント例:
// POST /swipe {"ticker":"BOB","direction":"right","token":"..."}
func (h *SwipeHandler) Swipe(c *gin.Context) {
	var req dto.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.uc.Swipe(c.Request.Context(), req.Ticker, req.Direction, req.Token)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("swipe failed", "ticker", req.Ticker, "error", err)
			c.JSON(status, gin.H{"error": "internal server error"})
			return
		}
		slog.Warn("swipe rejected", "ticker", req.Ticker, "direction", req.Direction, "remote_addr", c.ClientIP(), "error", err)
		c.JSON(status, gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, dto.SwipeResponse{
		Ticker: res.Stock.Ticker,
		Price:  res.Stock.Price,
		Token:  res.Token,
	})
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidDirection) {
		return http.StatusBadRequest
	}
	return stockshandler.StatusFor(err)
}

// errorMessage は usecase が付与した文脈を除いた、クライアント向けのメッセージを返します。
func errorMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
