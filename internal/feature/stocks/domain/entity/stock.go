// Package entity defines the domain models for the stocks feature.
package entity

import "time"

// ChangeType identifies what caused a price mutation.
type ChangeType string

const (
	ChangeInitial   ChangeType = "initial"
	ChangeSwipeUp   ChangeType = "swipe_up"
	ChangeSwipeDown ChangeType = "swipe_down"
	ChangeRandom    ChangeType = "random"
	ChangeAdmin     ChangeType = "admin"
)

// Stock is a party guest traded on the exchange.
// Ticker is immutable; the market fields are mutated by ticks, swipes,
// admin overrides and the snapshot job.
type Stock struct {
	Ticker      string
	Title       string
	Description string
	IsActive    bool

	Price          float64
	MaxPrice       *float64 // session high, reset at market open
	MinPrice       *float64 // session low, reset at market open
	ReferencePrice *float64 // price at the last market open
	ReferenceAt    *time.Time

	Rank               *int
	PreviousRank       *int
	ChangeRank         *int
	PreviousChangeRank *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PercentageChange returns the change from the reference price as a fraction
// (0.05 == +5%). ok is false when no reference price is set.
func (s *Stock) PercentageChange() (pct float64, ok bool) {
	if s.ReferencePrice == nil || *s.ReferencePrice <= 0 {
		return 0, false
	}
	return (s.Price - *s.ReferencePrice) / *s.ReferencePrice, true
}

// ApplyPrice sets a new price and widens the session extremes to include it.
func (s *Stock) ApplyPrice(price float64, now time.Time) {
	s.Price = price
	s.UpdatedAt = now
	if s.MaxPrice == nil || price > *s.MaxPrice {
		s.MaxPrice = &price
	}
	if s.MinPrice == nil || price < *s.MinPrice {
		s.MinPrice = &price
	}
}

// OpenSession fixes the current price as the 0% baseline of a new market day.
func (s *Stock) OpenSession(now time.Time) {
	p := s.Price
	s.ReferencePrice = &p
	s.ReferenceAt = &now
	hi, lo := p, p
	s.MaxPrice = &hi
	s.MinPrice = &lo
	s.UpdatedAt = now
}

// PriceEvent is an immutable, append-only record of one accepted price change.
type PriceEvent struct {
	ID         uint
	Ticker     string
	Price      float64
	ChangeType ChangeType
	CreatedAt  time.Time
}

// StockSnapshot is a periodic price sample used for charts.
type StockSnapshot struct {
	ID        uint
	Ticker    string
	Price     float64
	CreatedAt time.Time
}
