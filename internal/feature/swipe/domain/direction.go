// Package domain defines the swipe direction and swipe-specific errors.
package domain

import (
	"errors"
	"strings"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// ErrInvalidDirection is returned when a swipe direction is not recognized.
var ErrInvalidDirection = errors.New("direction must be one of left, right, down, up")

// Direction is the sign of a swipe: -1 for left/down, +1 for right/up.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

// ParseDirection accepts left/right and down/up, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right", "up":
		return Up, nil
	case "left", "down":
		return Down, nil
	}
	return 0, ErrInvalidDirection
}

// Sign returns the direction as a float multiplier.
func (d Direction) Sign() float64 {
	return float64(d)
}

// ChangeType maps the direction to the price event change type it produces.
func (d Direction) ChangeType() entity.ChangeType {
	if d == Up {
		return entity.ChangeSwipeUp
	}
	return entity.ChangeSwipeDown
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}
