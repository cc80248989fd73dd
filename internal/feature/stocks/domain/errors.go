// Package domain defines domain-level errors for the stocks feature.
package domain

import "errors"

// Domain errors for stock operations.
// Request-facing errors are rejected at the boundary and never retried;
// ErrLockContention is absorbed by the periodic jobs.
var (
	// ErrStockNotFound indicates that no stock exists for the given ticker.
	ErrStockNotFound = errors.New("stock not found")

	// ErrStockInactive indicates that the stock exists but does not trade.
	ErrStockInactive = errors.New("stock is inactive")

	// ErrTickerExists is returned when creating a stock whose ticker is taken.
	ErrTickerExists = errors.New("ticker already exists")

	// ErrInvalidTicker is returned when a ticker is empty, too long or not alphanumeric.
	ErrInvalidTicker = errors.New("ticker must be 1-10 alphanumeric characters")

	// ErrInvalidPrice is returned for non-positive or non-finite prices.
	ErrInvalidPrice = errors.New("price must be a positive number")

	// ErrLockContention indicates the ticker's row is being mutated concurrently.
	ErrLockContention = errors.New("stock is locked by a concurrent update")
)
