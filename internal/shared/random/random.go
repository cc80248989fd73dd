// Package random provides the random source used by the price simulation.
package random

import "math/rand/v2"

// Source yields uniformly distributed floats in [0, 1).
// Implementations must be safe for concurrent use.
type Source interface {
	Float64() float64
}

type global struct{}

func (global) Float64() float64 { return rand.Float64() }

// Global is the process-wide, goroutine-safe source.
var Global Source = global{}

// Uniform draws from [lo, hi). If hi <= lo it returns lo.
func Uniform(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*src.Float64()
}
