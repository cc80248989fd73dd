package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	"smg_backend/internal/feature/stocks/domain/entity"
)

// DefaultBigCrashThreshold is the percentage change (as a fraction) at or
// below which a stock counts as crashed.
const DefaultBigCrashThreshold = -0.10

// DetectorState is the last known state the detector diffs against.
type DetectorState struct {
	Leader      string             // ticker ranked #1 by price at the last pass
	AllTimeHigh map[string]float64 // per-ticker watermark, never reset
	Crashed     map[string]bool    // tickers currently at or below the crash threshold
}

// NewDetectorState returns an empty state.
func NewDetectorState() DetectorState {
	return DetectorState{AllTimeHigh: map[string]float64{}, Crashed: map[string]bool{}}
}

// EventStateStore persists DetectorState between passes and restarts.
type EventStateStore interface {
	Load(ctx context.Context) (DetectorState, error)
	Save(ctx context.Context, state DetectorState) error
}

// Detector derives market events from consecutive snapshot passes.
// Each condition fires once per crossing: a stock staying below the crash
// threshold does not fire again until it has recovered and crossed anew.
type Detector struct {
	store          EventStateStore
	crashThreshold float64
	now            func() time.Time
	newID          func() string
}

// NewDetector creates a Detector.
func NewDetector(store EventStateStore, crashThreshold float64) *Detector {
	return &Detector{
		store:          store,
		crashThreshold: crashThreshold,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Detect compares the active stocks of this pass (with fresh ranks) against
// the stored state and returns the events to broadcast, market open/close
// last. A ticker seen for the first time seeds its watermark silently; so
// does the leader on the very first pass.
func (d *Detector) Detect(ctx context.Context, stocks []entity.Stock, tr Transition, state entity.MarketState) ([]marketentity.MarketEvent, error) {
	st, err := d.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load detector state: %w", err)
	}
	if st.AllTimeHigh == nil {
		st.AllTimeHigh = map[string]float64{}
	}
	if st.Crashed == nil {
		st.Crashed = map[string]bool{}
	}

	now := d.now()
	var events []marketentity.MarketEvent

	if leader, ok := leaderOf(stocks); ok {
		if st.Leader != "" && st.Leader != leader.Ticker {
			events = append(events, d.event(marketentity.EventNewLeader, leader, now, func(e *marketentity.MarketEvent) {
				e.PreviousTicker = st.Leader
			}))
		}
		st.Leader = leader.Ticker
	}

	for _, s := range stocks {
		ath, seen := st.AllTimeHigh[s.Ticker]
		switch {
		case !seen:
			st.AllTimeHigh[s.Ticker] = s.Price
		case s.Price > ath:
			prev := ath
			events = append(events, d.event(marketentity.EventAllTimeHigh, s, now, func(e *marketentity.MarketEvent) {
				e.PreviousPrice = &prev
			}))
			st.AllTimeHigh[s.Ticker] = s.Price
		}

		pct, ok := s.PercentageChange()
		crashed := ok && pct <= d.crashThreshold
		if crashed && !st.Crashed[s.Ticker] {
			events = append(events, d.event(marketentity.EventBigCrash, s, now, func(e *marketentity.MarketEvent) {
				e.PercentChange = &pct
			}))
		}
		if crashed {
			st.Crashed[s.Ticker] = true
		} else {
			delete(st.Crashed, s.Ticker)
		}
	}

	if tr.Closed {
		events = append(events, d.marketEvent(marketentity.EventMarketClose, state, now))
	}
	if tr.Opened {
		events = append(events, d.marketEvent(marketentity.EventMarketOpen, state, now))
	}

	if err := d.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save detector state: %w", err)
	}
	return events, nil
}

func (d *Detector) event(kind marketentity.EventKind, s entity.Stock, now time.Time, fill func(*marketentity.MarketEvent)) marketentity.MarketEvent {
	e := marketentity.MarketEvent{
		ID:        d.newID(),
		Kind:      kind,
		Ticker:    s.Ticker,
		Title:     s.Title,
		Price:     s.Price,
		CreatedAt: now,
	}
	fill(&e)
	return e
}

func (d *Detector) marketEvent(kind marketentity.EventKind, state entity.MarketState, now time.Time) marketentity.MarketEvent {
	return marketentity.MarketEvent{
		ID:        d.newID(),
		Kind:      kind,
		MarketDay: state.MarketDayCount,
		CreatedAt: now,
	}
}

// leaderOf returns the stock ranked #1, falling back to the highest price
// when ranks are missing.
func leaderOf(stocks []entity.Stock) (entity.Stock, bool) {
	var best entity.Stock
	found := false
	for _, s := range stocks {
		if s.Rank != nil && *s.Rank == 1 {
			return s, true
		}
		if !found || s.Price > best.Price || (s.Price == best.Price && s.Ticker < best.Ticker) {
			best, found = s, true
		}
	}
	return best, found
}
