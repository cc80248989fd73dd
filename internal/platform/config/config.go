// Package config loads the market tuning options from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	marketusecase "smg_backend/internal/feature/market/usecase"
	"smg_backend/internal/feature/swipe/domain/token"
	swipeusecase "smg_backend/internal/feature/swipe/usecase"
)

// MarketConfig holds every tunable of the exchange.
type MarketConfig struct {
	BasePrice  float64 // initial price of new stocks
	PriceFloor float64

	TickEnabled    bool
	TickInterval   time.Duration
	TickMaxPercent float64

	SnapshotInterval      time.Duration
	SnapshotsPerMarketDay int
	SnapshotRetention     int
	AfterHoursSnapshots   int
	AfterHoursVolatility  float64

	SwipeBucketDuration  time.Duration
	SwipeBucketCount     int
	SwipeBasePercentMin  float64
	SwipeBasePercentMax  float64
	SwipeStreakThreshold int
	SwipeStreakPenalty   float64
	SwipePickinessLimit  float64
	SwipePickinessBonus  float64
	SwipeJitterMin       float64
	SwipeJitterMax       float64
	SwipeRateLimitPerMin int
	BigCrashThreshold    float64

	HTTPAddr          string
	CORSOrigins       []string
	JWTSecret         string
	AdminPasswordHash string
}

// Default returns the configuration used when no environment is set.
func Default() MarketConfig {
	return MarketConfig{
		BasePrice:             1000,
		PriceFloor:            0.01,
		TickEnabled:           true,
		TickInterval:          60 * time.Second,
		TickMaxPercent:        0.05,
		SnapshotInterval:      10 * time.Second,
		SnapshotsPerMarketDay: 60,
		SnapshotRetention:     100,
		AfterHoursSnapshots:   12,
		AfterHoursVolatility:  0.3,
		SwipeBucketDuration:   60 * time.Second,
		SwipeBucketCount:      10,
		SwipeBasePercentMin:   0.01,
		SwipeBasePercentMax:   0.03,
		SwipeStreakThreshold:  3,
		SwipeStreakPenalty:    0.5,
		SwipePickinessLimit:   0.6,
		SwipePickinessBonus:   1.5,
		SwipeJitterMin:        0.5,
		SwipeJitterMax:        2.0,
		SwipeRateLimitPerMin:  120,
		BigCrashThreshold:     -0.10,
		HTTPAddr:              ":8080",
	}
}

// LoadMarketConfig reads the configuration from environment variables.
// Unparseable values are logged and replaced by their default.
func LoadMarketConfig() MarketConfig {
	cfg := Default()

	cfg.BasePrice = envFloat("STOCK_BASE_PRICE", cfg.BasePrice)
	cfg.PriceFloor = envFloat("PRICE_FLOOR", cfg.PriceFloor)

	cfg.TickEnabled = envBool("PRICE_TICK_ENABLED", cfg.TickEnabled)
	cfg.TickInterval = envSeconds("PRICE_TICK_INTERVAL", cfg.TickInterval)
	cfg.TickMaxPercent = envFloat("PRICE_TICK_MAX_PERCENT", cfg.TickMaxPercent)

	cfg.SnapshotInterval = envSeconds("SNAPSHOT_INTERVAL", cfg.SnapshotInterval)
	cfg.SnapshotsPerMarketDay = envInt("SNAPSHOTS_PER_MARKET_DAY", cfg.SnapshotsPerMarketDay)
	cfg.SnapshotRetention = envInt("SNAPSHOT_RETENTION", cfg.SnapshotRetention)
	cfg.AfterHoursSnapshots = envInt("AFTER_HOURS_SNAPSHOTS", cfg.AfterHoursSnapshots)
	cfg.AfterHoursVolatility = envFloat("AFTER_HOURS_VOLATILITY_MULTIPLIER", cfg.AfterHoursVolatility)

	cfg.SwipeBucketDuration = envSeconds("SWIPE_BUCKET_DURATION", cfg.SwipeBucketDuration)
	cfg.SwipeBucketCount = envInt("SWIPE_BUCKET_COUNT", cfg.SwipeBucketCount)
	cfg.SwipeBasePercentMin = envFloat("SWIPE_BASE_PERCENT_MIN", cfg.SwipeBasePercentMin)
	cfg.SwipeBasePercentMax = envFloat("SWIPE_BASE_PERCENT_MAX", cfg.SwipeBasePercentMax)
	cfg.SwipeStreakThreshold = envInt("SWIPE_STREAK_THRESHOLD", cfg.SwipeStreakThreshold)
	cfg.SwipeStreakPenalty = envFloat("SWIPE_STREAK_PENALTY", cfg.SwipeStreakPenalty)
	cfg.SwipePickinessLimit = envFloat("SWIPE_PICKINESS_THRESHOLD", cfg.SwipePickinessLimit)
	cfg.SwipePickinessBonus = envFloat("SWIPE_PICKINESS_BONUS", cfg.SwipePickinessBonus)
	cfg.SwipeJitterMin = envFloat("SWIPE_JITTER_MIN", cfg.SwipeJitterMin)
	cfg.SwipeJitterMax = envFloat("SWIPE_JITTER_MAX", cfg.SwipeJitterMax)
	cfg.SwipeRateLimitPerMin = envInt("SWIPE_RATE_LIMIT_PER_MINUTE", cfg.SwipeRateLimitPerMin)
	cfg.BigCrashThreshold = envFloat("BIG_CRASH_THRESHOLD", cfg.BigCrashThreshold)

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")

	return cfg
}

// Validate rejects combinations the engine cannot run with.
func (c MarketConfig) Validate() error {
	var errs []error
	if c.BasePrice <= 0 {
		errs = append(errs, errors.New("STOCK_BASE_PRICE must be positive"))
	}
	if c.PriceFloor <= 0 {
		errs = append(errs, errors.New("PRICE_FLOOR must be positive"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("PRICE_TICK_INTERVAL must be positive"))
	}
	if c.TickMaxPercent < 0 {
		errs = append(errs, errors.New("PRICE_TICK_MAX_PERCENT must not be negative"))
	}
	if c.SnapshotInterval <= 0 {
		errs = append(errs, errors.New("SNAPSHOT_INTERVAL must be positive"))
	}
	if c.SnapshotsPerMarketDay < 1 {
		errs = append(errs, errors.New("SNAPSHOTS_PER_MARKET_DAY must be at least 1"))
	}
	if c.SnapshotRetention < 1 {
		errs = append(errs, errors.New("SNAPSHOT_RETENTION must be at least 1"))
	}
	if c.AfterHoursSnapshots < 0 {
		errs = append(errs, errors.New("AFTER_HOURS_SNAPSHOTS must not be negative"))
	}
	if c.AfterHoursVolatility < 0 {
		errs = append(errs, errors.New("AFTER_HOURS_VOLATILITY_MULTIPLIER must not be negative"))
	}
	if c.SwipeBucketDuration <= 0 {
		errs = append(errs, errors.New("SWIPE_BUCKET_DURATION must be positive"))
	}
	if c.SwipeBucketCount < 1 {
		errs = append(errs, errors.New("SWIPE_BUCKET_COUNT must be at least 1"))
	}
	if c.SwipeBasePercentMin < 0 || c.SwipeBasePercentMin > c.SwipeBasePercentMax {
		errs = append(errs, fmt.Errorf("SWIPE_BASE_PERCENT_MIN (%g) must be in [0, SWIPE_BASE_PERCENT_MAX (%g)]",
			c.SwipeBasePercentMin, c.SwipeBasePercentMax))
	}
	if c.SwipeStreakThreshold < 1 {
		errs = append(errs, errors.New("SWIPE_STREAK_THRESHOLD must be at least 1"))
	}
	if c.SwipeStreakPenalty <= 0 || c.SwipeStreakPenalty > 1 {
		errs = append(errs, errors.New("SWIPE_STREAK_PENALTY must be in (0, 1]"))
	}
	if c.SwipePickinessLimit < 0 || c.SwipePickinessLimit > 1 {
		errs = append(errs, errors.New("SWIPE_PICKINESS_THRESHOLD must be in [0, 1]"))
	}
	if c.SwipePickinessBonus < 1 {
		errs = append(errs, errors.New("SWIPE_PICKINESS_BONUS must be at least 1"))
	}
	if c.SwipeJitterMin < 0 || c.SwipeJitterMin > c.SwipeJitterMax {
		errs = append(errs, fmt.Errorf("SWIPE_JITTER_MIN (%g) must be in [0, SWIPE_JITTER_MAX (%g)]",
			c.SwipeJitterMin, c.SwipeJitterMax))
	}
	if c.SwipeRateLimitPerMin < 1 {
		errs = append(errs, errors.New("SWIPE_RATE_LIMIT_PER_MINUTE must be at least 1"))
	}
	if c.BigCrashThreshold >= 0 {
		errs = append(errs, errors.New("BIG_CRASH_THRESHOLD must be negative"))
	}
	return errors.Join(errs...)
}

// ScoringConfig returns the swipe scoring parameters.
func (c MarketConfig) ScoringConfig() swipeusecase.ScoringConfig {
	return swipeusecase.ScoringConfig{
		BasePercentMin:     c.SwipeBasePercentMin,
		BasePercentMax:     c.SwipeBasePercentMax,
		StreakThreshold:    c.SwipeStreakThreshold,
		StreakPenalty:      c.SwipeStreakPenalty,
		PickinessThreshold: c.SwipePickinessLimit,
		PickinessBonus:     c.SwipePickinessBonus,
		JitterMin:          c.SwipeJitterMin,
		JitterMax:          c.SwipeJitterMax,
		PriceFloor:         c.PriceFloor,
	}
}

// Codec returns the swipe token codec.
func (c MarketConfig) Codec() token.Codec {
	return token.NewCodec(c.SwipeBucketDuration, c.SwipeBucketCount)
}

// TickConfig returns the price tick parameters.
func (c MarketConfig) TickConfig() marketusecase.TickConfig {
	return marketusecase.TickConfig{
		Enabled:              c.TickEnabled,
		MaxPercent:           c.TickMaxPercent,
		AfterHoursMultiplier: c.AfterHoursVolatility,
		PriceFloor:           c.PriceFloor,
	}
}

// LifecycleConfig returns the market day parameters.
func (c MarketConfig) LifecycleConfig() marketusecase.LifecycleConfig {
	return marketusecase.LifecycleConfig{
		SnapshotsPerMarketDay: c.SnapshotsPerMarketDay,
		AfterHoursSnapshots:   c.AfterHoursSnapshots,
	}
}

// SnapshotConfig returns the snapshot job parameters.
func (c MarketConfig) SnapshotConfig() marketusecase.SnapshotConfig {
	return marketusecase.SnapshotConfig{
		Lifecycle: c.LifecycleConfig(),
		Retention: c.SnapshotRetention,
	}
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		slog.Warn("invalid config value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("invalid config value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("invalid config value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

// envSeconds parses a whole or fractional number of seconds.
func envSeconds(key string, def time.Duration) time.Duration {
	secs := envFloat(key, def.Seconds())
	return time.Duration(secs * float64(time.Second))
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
