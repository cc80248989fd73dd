package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	stocksdomain "smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
	stocksusecase "smg_backend/internal/feature/stocks/usecase"
	"smg_backend/internal/feature/swipe/domain"
	"smg_backend/internal/feature/swipe/domain/token"
)

// StockMutator is the slice of the stock repository a swipe needs.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockMutator interface {
	Mutate(ctx context.Context, ticker string, change entity.ChangeType, fn stocksusecase.MutateFunc) (*entity.Stock, error)
}

// StockPublisher pushes a changed stock to connected displays.
type StockPublisher interface {
	PublishStock(s entity.Stock)
}

// Result is the outcome of an accepted swipe.
type Result struct {
	Stock entity.Stock
	Token string
	Delta float64
}

// SwipeUsecase applies kiosk swipes to stock prices.
type SwipeUsecase struct {
	stocks    StockMutator
	scorer    *Scorer
	codec     token.Codec
	publisher StockPublisher
	now       func() time.Time
}

// NewSwipeUsecase creates a SwipeUsecase. publisher may be nil.
func NewSwipeUsecase(stocks StockMutator, scorer *Scorer, codec token.Codec, publisher StockPublisher) *SwipeUsecase {
	return &SwipeUsecase{
		stocks:    stocks,
		scorer:    scorer,
		codec:     codec,
		publisher: publisher,
		now:       time.Now,
	}
}

// Swipe scores one swipe on ticker and commits the new price with its price
// event atomically. tok is the client's previous token (may be empty or
// garbage). On any error nothing is written and the client keeps its token.
func (u *SwipeUsecase) Swipe(ctx context.Context, ticker, direction, tok string) (*Result, error) {
	dir, err := domain.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	ticker, err = stocksusecase.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	history := u.codec.Advance(u.codec.Decode(tok), u.now())

	var score Score
	stock, err := u.stocks.Mutate(ctx, ticker, dir.ChangeType(), func(s *entity.Stock) (float64, error) {
		if !s.IsActive {
			return 0, stocksdomain.ErrStockInactive
		}
		if !stocksusecase.ValidPrice(s.Price) {
			return 0, stocksdomain.ErrInvalidPrice
		}
		score = u.scorer.Score(s.Price, dir, history)
		return score.NewPrice, nil
	})
	if err != nil {
		return nil, fmt.Errorf("swipe %s on %s: %w", dir, ticker, err)
	}

	slog.Debug("swipe applied",
		"ticker", ticker,
		"direction", dir.String(),
		"delta", score.Delta,
		"price", stock.Price,
		"streak_penalty", score.StreakPenalty,
		"pickiness_bonus", score.PickinessBonus,
	)
	if u.publisher != nil {
		u.publisher.PublishStock(*stock)
	}
	return &Result{Stock: *stock, Token: u.codec.Encode(score.History), Delta: score.Delta}, nil
}
