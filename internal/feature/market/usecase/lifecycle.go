package usecase

import (
	"time"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// LifecycleConfig drives the open / after-hours state machine.
type LifecycleConfig struct {
	SnapshotsPerMarketDay int
	AfterHoursSnapshots   int // 0 disables the after-hours phase
}

// Transition reports what a lifecycle step did. An instant cycle
// (no after-hours phase) sets both flags.
type Transition struct {
	Closed bool
	Opened bool
}

// Advance counts one snapshot against state and applies at most one
// close/open transition. It returns the new state; state is not modified.
//
// Opening resets after_hours_snapshot_count and increments market_day_count.
// The per-stock part of opening (reference/max/min reset) is the caller's job.
func Advance(state entity.MarketState, cfg LifecycleConfig, now time.Time) (entity.MarketState, Transition) {
	next := state
	next.UpdatedAt = now
	var tr Transition

	if next.IsOpen {
		next.SnapshotCount++
		if next.SnapshotCount < cfg.SnapshotsPerMarketDay {
			return next, tr
		}
		next.SnapshotCount = 0
		tr.Closed = true
		if cfg.AfterHoursSnapshots > 0 {
			next.IsOpen = false
			next.AfterHoursSnapshotCount = 0
			return next, tr
		}
		open(&next)
		tr.Opened = true
		return next, tr
	}

	next.AfterHoursSnapshotCount++
	if next.AfterHoursSnapshotCount >= cfg.AfterHoursSnapshots {
		open(&next)
		tr.Opened = true
	}
	return next, tr
}

func open(s *entity.MarketState) {
	s.IsOpen = true
	s.SnapshotCount = 0
	s.AfterHoursSnapshotCount = 0
	s.MarketDayCount++
}
