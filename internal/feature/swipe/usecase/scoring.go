// Package usecase implements swipe scoring and the swipe operation.
package usecase

import (
	"math"

	"smg_backend/internal/feature/swipe/domain"
	"smg_backend/internal/feature/swipe/domain/token"
	"smg_backend/internal/shared/random"
)

// ScoringConfig holds the tuning knobs of the swipe scoring engine.
type ScoringConfig struct {
	BasePercentMin     float64 // e.g. 0.01 for 1%
	BasePercentMax     float64
	StreakThreshold    int     // newest buckets inspected, and swipes needed, for the streak penalty
	StreakPenalty      float64 // multiplier in (0, 1]
	PickinessThreshold float64 // share of down swipes above which an up swipe earns the bonus
	PickinessBonus     float64 // multiplier >= 1
	JitterMin          float64
	JitterMax          float64
	PriceFloor         float64 // smallest price a swipe can produce
}

// Score is the outcome of scoring one swipe.
type Score struct {
	NewPrice       float64
	Delta          float64
	BasePercent    float64
	StreakPenalty  float64
	PickinessBonus float64
	Jitter         float64
	History        token.History // input history with this swipe recorded
}

// Scorer maps (price, direction, history) to a bounded random price delta.
// It has no side effects beyond drawing from its random source.
type Scorer struct {
	cfg   ScoringConfig
	codec token.Codec
	rnd   random.Source
}

// NewScorer creates a Scorer. A nil rnd uses random.Global.
func NewScorer(cfg ScoringConfig, codec token.Codec, rnd random.Source) *Scorer {
	if rnd == nil {
		rnd = random.Global
	}
	return &Scorer{cfg: cfg, codec: codec, rnd: rnd}
}

// Score computes the delta for a swipe on a stock priced at price, given the
// user's already advanced history. price must be > 0.
//
//	delta = price * basePercent * streakPenalty * pickinessBonus * jitter * sign
func (s *Scorer) Score(price float64, dir domain.Direction, h token.History) Score {
	basePercent := random.Uniform(s.rnd, s.cfg.BasePercentMin, s.cfg.BasePercentMax)
	streak := s.streakPenalty(dir, h)
	bonus := s.pickinessBonus(dir, h)
	jitter := random.Uniform(s.rnd, s.cfg.JitterMin, s.cfg.JitterMax)

	delta := price * basePercent * streak * bonus * jitter * dir.Sign()
	newPrice := math.Max(price+delta, s.cfg.PriceFloor)

	return Score{
		NewPrice:       newPrice,
		Delta:          delta,
		BasePercent:    basePercent,
		StreakPenalty:  streak,
		PickinessBonus: bonus,
		Jitter:         jitter,
		History:        s.codec.Record(h, dir),
	}
}

// streakPenalty dampens a swipe that continues a one-sided run: all swipes
// in the newest StreakThreshold buckets point the same way as dir and there
// are at least StreakThreshold of them.
func (s *Scorer) streakPenalty(dir domain.Direction, h token.History) float64 {
	if s.cfg.StreakThreshold <= 0 {
		return 1
	}
	w := h.Window(s.cfg.StreakThreshold)
	same, opposite := w.Up, w.Down
	if dir == domain.Down {
		same, opposite = w.Down, w.Up
	}
	if opposite == 0 && same >= s.cfg.StreakThreshold {
		return s.cfg.StreakPenalty
	}
	return 1
}

// pickinessBonus rewards an up swipe from a user who mostly swipes down.
func (s *Scorer) pickinessBonus(dir domain.Direction, h token.History) float64 {
	if dir != domain.Up {
		return 1
	}
	t := h.Totals()
	if t.Total() == 0 {
		return 1
	}
	if float64(t.Down)/float64(t.Total()) > s.cfg.PickinessThreshold {
		return s.cfg.PickinessBonus
	}
	return 1
}
