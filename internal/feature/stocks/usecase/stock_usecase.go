package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
)

const (
	// maxTickerLength はティッカーの最大文字数です。
	maxTickerLength = 10
	// DefaultHistoryLimit はスナップショット/イベント取得件数のデフォルト値です。
	DefaultHistoryLimit = 30
	// MaxHistoryLimit はスナップショット/イベント取得件数の上限です。
	MaxHistoryLimit = 100
)

// CreateStockInput は銘柄作成の入力値です。
type CreateStockInput struct {
	Ticker       string
	Title        string
	Description  string
	InitialPrice *float64 // nil の場合は STOCK_BASE_PRICE を使用
}

// StockUsecase は銘柄の管理操作と参照系のユースケースを実装します。
type StockUsecase struct {
	stocks    StockRepository
	history   HistoryRepository
	publisher StockPublisher
	basePrice float64
}

// NewStockUsecase はStockUsecaseの新しいインスタンスを生成します。
// publisher が nil の場合は配信を行いません。
func NewStockUsecase(stocks StockRepository, history HistoryRepository, publisher StockPublisher, basePrice float64) *StockUsecase {
	return &StockUsecase{stocks: stocks, history: history, publisher: publisher, basePrice: basePrice}
}

// NormalizeTicker はティッカーを大文字化・トリムし、形式を検証します。
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" || len(t) > maxTickerLength {
		return "", domain.ErrInvalidTicker
	}
	for _, r := range t {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", domain.ErrInvalidTicker
		}
	}
	return t, nil
}

// ValidPrice は価格が正の有限値であるかを判定します。
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// Create は新しい銘柄を登録し、初期価格イベントを記録します。
// 登録時点の価格を基準価格・セッション高値/安値として設定します（暗黙の寄り付き）。
func (u *StockUsecase) Create(ctx context.Context, in CreateStockInput) (*entity.Stock, error) {
	ticker, err := NormalizeTicker(in.Ticker)
	if err != nil {
		return nil, err
	}
	price := u.basePrice
	if in.InitialPrice != nil {
		price = *in.InitialPrice
	}
	if !ValidPrice(price) {
		return nil, domain.ErrInvalidPrice
	}

	s := &entity.Stock{
		Ticker:      ticker,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		IsActive:    true,
		Price:       price,
	}
	hi, lo, ref := price, price, price
	s.MaxPrice, s.MinPrice, s.ReferencePrice = &hi, &lo, &ref

	if err := u.stocks.Create(ctx, s); err != nil {
		return nil, err
	}
	now := s.CreatedAt
	s.ReferenceAt = &now

	slog.Info("stock created", "ticker", ticker, "title", s.Title, "price", price)
	u.publish(*s)
	return s, nil
}

// SetPrice は管理者による価格の上書きを行います。
// 価格は正の値でなければならず、価格更新と価格イベントは同一トランザクションで記録されます。
// 非アクティブな銘柄も対象です（再開前の価格修正のため）。
func (u *StockUsecase) SetPrice(ctx context.Context, ticker string, price float64) (*entity.Stock, error) {
	if !ValidPrice(price) {
		return nil, domain.ErrInvalidPrice
	}
	s, err := u.stocks.Mutate(ctx, ticker, entity.ChangeAdmin, func(*entity.Stock) (float64, error) {
		return price, nil
	})
	if err != nil {
		return nil, fmt.Errorf("set price of %s: %w", ticker, err)
	}
	slog.Info("stock price set by admin", "ticker", ticker, "price", price)
	u.publish(*s)
	return s, nil
}

// SetActive は銘柄の取引参加フラグを切り替えます。履歴は削除されません。
func (u *StockUsecase) SetActive(ctx context.Context, ticker string, active bool) (*entity.Stock, error) {
	s, err := u.stocks.SetActive(ctx, ticker, active)
	if err != nil {
		return nil, err
	}
	slog.Info("stock activation changed", "ticker", ticker, "active", active)
	u.publish(*s)
	return s, nil
}

// List は指定された順序で銘柄一覧を返します。
func (u *StockUsecase) List(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error) {
	if !order.Valid() {
		order = entity.OrderDefault
	}
	return u.stocks.List(ctx, order, limit)
}

// Get は単一の銘柄を返します。
func (u *StockUsecase) Get(ctx context.Context, ticker string) (*entity.Stock, error) {
	return u.stocks.FindByTicker(ctx, ticker)
}

// Snapshots はチャート用のスナップショットを古い順に返します。
func (u *StockUsecase) Snapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error) {
	if _, err := u.stocks.FindByTicker(ctx, ticker); err != nil {
		return nil, err
	}
	return u.history.ListSnapshots(ctx, ticker, clampLimit(limit))
}

// PriceEvents は価格変更履歴を新しい順に返します。
func (u *StockUsecase) PriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error) {
	if _, err := u.stocks.FindByTicker(ctx, ticker); err != nil {
		return nil, err
	}
	return u.history.ListPriceEvents(ctx, ticker, clampLimit(limit))
}

func (u *StockUsecase) publish(s entity.Stock) {
	if u.publisher != nil {
		u.publisher.PublishStock(s)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
