// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/feature/stocks/transport/http/dto"
	"smg_backend/internal/feature/stocks/usecase"
)

// StockUsecase は銘柄の参照・管理操作のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StockUsecase interface {
	Create(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error)
	SetPrice(ctx context.Context, ticker string, price float64) (*entity.Stock, error)
	SetActive(ctx context.Context, ticker string, active bool) (*entity.Stock, error)
	List(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error)
	Get(ctx context.Context, ticker string) (*entity.Stock, error)
	Snapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error)
	PriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error)
}

// StockHandler は銘柄に関するHTTPリクエストを処理します。
type StockHandler struct {
	uc StockUsecase
}

// NewStockHandler は新しい StockHandler を作成します。
func NewStockHandler(uc StockUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

// List は銘柄一覧を返します。
//
// エンドポイント例:
// GET /stocks?order=rank&limit=10
func (h *StockHandler) List(c *gin.Context) {
	order := entity.ListOrder(c.Query("order"))
	if !order.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order: " + string(order)})
		return
	}
	limit, ok := queryInt(c, "limit", 0, 0, 0)
	if !ok {
		return
	}

	stocks, err := h.uc.List(c.Request.Context(), order, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockResponses(stocks))
}

// Get は単一の銘柄を返します。
func (h *StockHandler) Get(c *gin.Context) {
	s, err := h.uc.Get(c.Request.Context(), tickerParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockResponse(*s))
}

// Snapshots はチャート用のスナップショットを古い順に返します。
//
// エンドポイント例:
// GET /stocks/:ticker/snapshots?limit=30
func (h *StockHandler) Snapshots(c *gin.Context) {
	limit, ok := queryInt(c, "limit", usecase.DefaultHistoryLimit, 1, usecase.MaxHistoryLimit)
	if !ok {
		return
	}
	snaps, err := h.uc.Snapshots(c.Request.Context(), tickerParam(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.SnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, dto.SnapshotResponse{Price: s.Price, CreatedAt: s.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

// Events は価格変更履歴を新しい順に返します。
func (h *StockHandler) Events(c *gin.Context) {
	limit, ok := queryInt(c, "limit", usecase.DefaultHistoryLimit, 1, usecase.MaxHistoryLimit)
	if !ok {
		return
	}
	events, err := h.uc.PriceEvents(c.Request.Context(), tickerParam(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.PriceEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.PriceEventResponse{
			ID:         e.ID,
			Price:      e.Price,
			ChangeType: string(e.ChangeType),
			CreatedAt:  e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Create は新しい銘柄を登録します（管理者用）。
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.uc.Create(c.Request.Context(), usecase.CreateStockInput{
		Ticker:       req.Ticker,
		Title:        req.Title,
		Description:  req.Description,
		InitialPrice: req.InitialPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewStockResponse(*s))
}

// SetPrice は銘柄の価格を上書きします（管理者用）。
func (h *StockHandler) SetPrice(c *gin.Context) {
	var req dto.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.uc.SetPrice(c.Request.Context(), tickerParam(c), *req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockResponse(*s))
}

// SetActive は銘柄の取引参加フラグを切り替えます（管理者用）。
func (h *StockHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.uc.SetActive(c.Request.Context(), tickerParam(c), *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockResponse(*s))
}

func tickerParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
}

// queryInt は整数クエリを読み取ります。hi が 0 の場合は上限を設けません。
// 不正な値の場合は400を書き込み ok=false を返します。
func queryInt(c *gin.Context, key string, def, lo, hi int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}

// StatusFor はドメインエラーをHTTPステータスに変換します。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrStockNotFound), errors.Is(err, domain.ErrStockInactive):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTicker), errors.Is(err, domain.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTickerExists), errors.Is(err, domain.ErrLockContention):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("stock request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	slog.Warn("stock request rejected", "path", c.FullPath(), "remote_addr", c.ClientIP(), "error", err)
	c.JSON(status, gin.H{"error": err.Error()})
}
