// Package adapters provides storage for the market event detector's state.
package adapters

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"smg_backend/internal/feature/market/usecase"
)

// EventStateRedis implements usecase.EventStateStore using Redis, so that
// watermarks and crash flags survive restarts and are shared between replicas.
type EventStateRedis struct {
	client *redis.Client
	prefix string
}

var _ usecase.EventStateStore = (*EventStateRedis)(nil)

// NewEventStateRedis creates a new EventStateRedis instance.
func NewEventStateRedis(client *redis.Client, prefix string) *EventStateRedis {
	return &EventStateRedis{client: client, prefix: prefix}
}

func (r *EventStateRedis) leaderKey() string  { return r.prefix + ":leader" }
func (r *EventStateRedis) athKey() string     { return r.prefix + ":ath" }
func (r *EventStateRedis) crashedKey() string { return r.prefix + ":crashed" }

// Load reads the detector state. Missing keys yield an empty state.
func (r *EventStateRedis) Load(ctx context.Context) (usecase.DetectorState, error) {
	st := usecase.NewDetectorState()

	leader, err := r.client.Get(ctx, r.leaderKey()).Result()
	if err != nil && err != redis.Nil {
		return st, err
	}
	st.Leader = leader

	ath, err := r.client.HGetAll(ctx, r.athKey()).Result()
	if err != nil {
		return st, err
	}
	for ticker, raw := range ath {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return st, fmt.Errorf("parse all-time high of %s: %w", ticker, err)
		}
		st.AllTimeHigh[ticker] = v
	}

	crashed, err := r.client.SMembers(ctx, r.crashedKey()).Result()
	if err != nil {
		return st, err
	}
	for _, ticker := range crashed {
		st.Crashed[ticker] = true
	}
	return st, nil
}

// Save replaces the stored state atomically.
func (r *EventStateRedis) Save(ctx context.Context, st usecase.DetectorState) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if st.Leader == "" {
			pipe.Del(ctx, r.leaderKey())
		} else {
			pipe.Set(ctx, r.leaderKey(), st.Leader, 0)
		}

		pipe.Del(ctx, r.athKey())
		if len(st.AllTimeHigh) > 0 {
			fields := make(map[string]any, len(st.AllTimeHigh))
			for ticker, v := range st.AllTimeHigh {
				fields[ticker] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			pipe.HSet(ctx, r.athKey(), fields)
		}

		pipe.Del(ctx, r.crashedKey())
		if len(st.Crashed) > 0 {
			members := make([]any, 0, len(st.Crashed))
			for ticker, crashed := range st.Crashed {
				if crashed {
					members = append(members, ticker)
				}
			}
			if len(members) > 0 {
				pipe.SAdd(ctx, r.crashedKey(), members...)
			}
		}
		return nil
	})
	return err
}
