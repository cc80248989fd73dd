package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"

	stocksdomain "smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/shared/random"
)

// TickConfig configures the random walk.
type TickConfig struct {
	Enabled              bool
	MaxPercent           float64 // e.g. 0.05 for ±5%
	AfterHoursMultiplier float64 // volatility scale while the market is closed
	PriceFloor           float64
}

// TickResult summarizes one tick pass.
type TickResult struct {
	Updated int
	Skipped int
	Failed  int
}

// TickJob perturbs every active stock's price by an independent random
// percentage. Each stock is its own transaction; a stock that is locked by
// a concurrent swipe is skipped until the next tick.
type TickJob struct {
	stocks      StockStore
	market      MarketStateStore
	broadcaster Broadcaster
	rnd         random.Source
	cfg         TickConfig
}

// NewTickJob creates a TickJob. A nil rnd uses random.Global; broadcaster may be nil.
func NewTickJob(stocks StockStore, market MarketStateStore, broadcaster Broadcaster, rnd random.Source, cfg TickConfig) *TickJob {
	if rnd == nil {
		rnd = random.Global
	}
	return &TickJob{stocks: stocks, market: market, broadcaster: broadcaster, rnd: rnd, cfg: cfg}
}

// Name identifies the job in logs.
func (j *TickJob) Name() string { return "price_tick" }

// Run executes one tick pass. It returns an error only when the pass could
// not start; per-stock failures are logged and counted.
func (j *TickJob) Run(ctx context.Context) error {
	_, err := j.Tick(ctx)
	return err
}

// Tick executes one tick pass and reports what happened.
func (j *TickJob) Tick(ctx context.Context) (TickResult, error) {
	var res TickResult
	if !j.cfg.Enabled {
		return res, nil
	}

	stocks, err := j.stocks.ListActive(ctx)
	if err != nil {
		return res, err
	}
	if len(stocks) == 0 {
		slog.Debug("no active stocks to tick")
		return res, nil
	}

	state, err := j.market.Get(ctx)
	if err != nil {
		return res, err
	}
	maxPct := j.cfg.MaxPercent
	if !state.IsOpen {
		maxPct *= j.cfg.AfterHoursMultiplier
	}

	updated := make([]entity.Stock, 0, len(stocks))
	for _, s := range stocks {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		pct := random.Uniform(j.rnd, -maxPct, maxPct)
		got, err := j.stocks.TryMutate(ctx, s.Ticker, entity.ChangeRandom, func(cur *entity.Stock) (float64, error) {
			if !cur.IsActive {
				return 0, stocksdomain.ErrStockInactive
			}
			return math.Max(cur.Price*(1+pct), j.cfg.PriceFloor), nil
		})
		switch {
		case err == nil:
			res.Updated++
			updated = append(updated, *got)
		case errors.Is(err, stocksdomain.ErrLockContention), errors.Is(err, stocksdomain.ErrStockInactive), errors.Is(err, stocksdomain.ErrStockNotFound):
			res.Skipped++
			slog.Debug("tick skipped stock", "ticker", s.Ticker, "reason", err)
		default:
			res.Failed++
			slog.Warn("tick failed for stock", "ticker", s.Ticker, "error", err)
		}
	}

	slog.Debug("ticked prices", "updated", res.Updated, "skipped", res.Skipped, "failed", res.Failed, "open", state.IsOpen)
	if j.broadcaster != nil && len(updated) > 0 {
		j.broadcaster.PublishStocks(updated)
	}
	return res, nil
}
