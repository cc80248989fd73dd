package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	"smg_backend/internal/feature/stocks/domain/entity"
)

// SnapshotConfig configures the snapshot pass.
type SnapshotConfig struct {
	Lifecycle LifecycleConfig
	Retention int // snapshots kept per ticker
}

// SnapshotResult summarizes one snapshot pass.
type SnapshotResult struct {
	State      entity.MarketState
	Transition Transition
	Rankings   []entity.Ranking
	Events     []marketentity.MarketEvent
}

// SnapshotJob is the single writer of MarketState. Each pass reads every
// stock once, records a snapshot per stock, ranks the active ones from that
// same read, prunes old snapshots and advances the market lifecycle.
type SnapshotJob struct {
	stocks      StockStore
	snapshots   SnapshotStore
	market      MarketStateStore
	detector    *Detector
	broadcaster Broadcaster
	cfg         SnapshotConfig
	now         func() time.Time

	// 寄り付きに失敗し、次のパスで再試行する銘柄
	mu          sync.Mutex
	pendingOpen map[string]struct{}
}

// NewSnapshotJob creates a SnapshotJob. detector and broadcaster may be nil.
func NewSnapshotJob(stocks StockStore, snapshots SnapshotStore, market MarketStateStore, detector *Detector, broadcaster Broadcaster, cfg SnapshotConfig) *SnapshotJob {
	return &SnapshotJob{
		stocks:      stocks,
		snapshots:   snapshots,
		market:      market,
		detector:    detector,
		broadcaster: broadcaster,
		cfg:         cfg,
		now:         time.Now,
		pendingOpen: make(map[string]struct{}),
	}
}

// Name identifies the job in logs.
func (j *SnapshotJob) Name() string { return "price_snapshot" }

// Run executes one snapshot pass.
func (j *SnapshotJob) Run(ctx context.Context) error {
	_, err := j.Snapshot(ctx)
	return err
}

// Snapshot executes one snapshot pass and reports what happened.
func (j *SnapshotJob) Snapshot(ctx context.Context) (*SnapshotResult, error) {
	now := j.now()

	all, err := j.stocks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	snaps := make([]entity.StockSnapshot, 0, len(all))
	active := make([]entity.Stock, 0, len(all))
	for _, s := range all {
		snaps = append(snaps, entity.StockSnapshot{Ticker: s.Ticker, Price: s.Price, CreatedAt: now})
		if s.IsActive {
			active = append(active, s)
		}
	}
	if err := j.snapshots.AppendSnapshots(ctx, snaps); err != nil {
		return nil, fmt.Errorf("append snapshots: %w", err)
	}

	rankings := ComputeRankings(active)
	if err := j.stocks.UpdateRankings(ctx, rankings); err != nil {
		return nil, fmt.Errorf("update rankings: %w", err)
	}
	ApplyRankings(active, rankings)

	for _, s := range all {
		deleted, err := j.snapshots.PruneSnapshots(ctx, s.Ticker, j.cfg.Retention)
		if err != nil {
			slog.Warn("failed to prune snapshots", "ticker", s.Ticker, "error", err)
			continue
		}
		if deleted > 0 {
			slog.Debug("pruned snapshots", "ticker", s.Ticker, "deleted", deleted)
		}
	}

	state, err := j.market.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get market state: %w", err)
	}
	next, tr := Advance(state, j.cfg.Lifecycle, now)

	j.openSessions(ctx, active, tr.Opened)
	if err := j.market.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save market state: %w", err)
	}
	switch {
	case tr.Closed && tr.Opened:
		slog.Info("market day completed, next day opened immediately", "market_day", next.MarketDayCount)
	case tr.Closed:
		slog.Info("market closed, entering after-hours", "market_day", next.MarketDayCount)
	case tr.Opened:
		slog.Info("after-hours complete, market opened", "market_day", next.MarketDayCount)
	}

	res := &SnapshotResult{State: next, Transition: tr, Rankings: rankings}
	if j.detector != nil {
		events, err := j.detector.Detect(ctx, active, tr, next)
		if err != nil {
			slog.Warn("market event detection failed", "error", err)
		}
		res.Events = events
	}

	if j.broadcaster != nil {
		j.broadcaster.PublishStocks(mergeActive(all, active))
		if len(res.Events) > 0 {
			j.broadcaster.PublishEvents(res.Events)
		}
	}
	slog.Debug("snapshot pass complete", "stocks", len(all), "active", len(active), "open", next.IsOpen, "events", len(res.Events))
	return res, nil
}

// openSessions resets the session baseline of active stocks that need it:
// all of them on a market open, plus those without a reference price and
// those whose open failed on an earlier pass. Failures are kept for retry.
func (j *SnapshotJob) openSessions(ctx context.Context, active []entity.Stock, marketOpened bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	isActive := make(map[string]bool, len(active))
	for i, s := range active {
		isActive[s.Ticker] = true
		_, pending := j.pendingOpen[s.Ticker]
		// 基準価格を持たない銘柄は暗黙の寄り付きとして扱う
		if !marketOpened && !pending && s.ReferencePrice != nil {
			continue
		}
		opened, err := j.stocks.OpenSession(ctx, s.Ticker)
		if err != nil {
			slog.Warn("failed to open session for stock; will retry next pass", "ticker", s.Ticker, "error", err)
			j.pendingOpen[s.Ticker] = struct{}{}
			continue
		}
		delete(j.pendingOpen, s.Ticker)
		active[i].Price = opened.Price
		active[i].ReferencePrice = opened.ReferencePrice
		active[i].ReferenceAt = opened.ReferenceAt
		active[i].MaxPrice = opened.MaxPrice
		active[i].MinPrice = opened.MinPrice
	}
	// 非アクティブ化・削除された銘柄は再試行しない
	for ticker := range j.pendingOpen {
		if !isActive[ticker] {
			delete(j.pendingOpen, ticker)
		}
	}
}

// mergeActive returns all with its active entries replaced by their updated copies.
func mergeActive(all, active []entity.Stock) []entity.Stock {
	idx := make(map[string]entity.Stock, len(active))
	for _, s := range active {
		idx[s.Ticker] = s
	}
	out := make([]entity.Stock, 0, len(all))
	for _, s := range all {
		if a, ok := idx[s.Ticker]; ok {
			s = a
		} else {
			s.Rank, s.ChangeRank = nil, nil
		}
		out = append(out, s)
	}
	return out
}
