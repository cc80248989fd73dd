// Package entity defines the market event model broadcast to displays.
package entity

import "time"

// EventKind classifies a market event.
type EventKind string

const (
	EventNewLeader   EventKind = "new_leader"
	EventAllTimeHigh EventKind = "all_time_high"
	EventBigCrash    EventKind = "big_crash"
	EventMarketOpen  EventKind = "market_open"
	EventMarketClose EventKind = "market_close"
)

// MarketEvent is a discrete, notable change derived from a snapshot pass.
// Only the fields relevant to Kind are set.
type MarketEvent struct {
	ID             string
	Kind           EventKind
	Ticker         string
	Title          string
	Price          float64
	PreviousPrice  *float64 // previous all-time high for all_time_high
	PreviousTicker string   // dethroned leader for new_leader
	PercentChange  *float64 // fraction, for big_crash
	MarketDay      int      // for market_open / market_close
	CreatedAt      time.Time
}
