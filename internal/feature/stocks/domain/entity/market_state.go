package entity

import "time"

// MarketState describes the lifecycle phase of the simulation.
// Exactly one instance exists; only the snapshot job mutates it.
type MarketState struct {
	IsOpen                  bool
	SnapshotCount           int // snapshots taken in the current trading phase
	AfterHoursSnapshotCount int
	MarketDayCount          int // completed market-day transitions
	UpdatedAt               time.Time
}

// NewMarketState returns the first-boot state: open, all counters at zero.
func NewMarketState() MarketState {
	return MarketState{IsOpen: true}
}
