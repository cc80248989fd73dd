package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smg_backend/internal/feature/stocks/domain/entity"
)

var lifecycleTime = time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)

func TestAdvance_CycleWithAfterHours(t *testing.T) {
	t.Parallel()

	cfg := LifecycleConfig{SnapshotsPerMarketDay: 3, AfterHoursSnapshots: 2}

	steps := []struct {
		isOpen bool
		snap   int
		ah     int
		day    int
		closed bool
		opened bool
	}{
		{isOpen: true, snap: 1},
		{isOpen: true, snap: 2},
		{isOpen: false, snap: 0, closed: true},
		{isOpen: false, ah: 1},
		{isOpen: true, day: 1, opened: true},
		{isOpen: true, snap: 1, day: 1},
	}

	state := entity.NewMarketState()
	for i, want := range steps {
		var tr Transition
		state, tr = Advance(state, cfg, lifecycleTime)

		assert.Equal(t, want.isOpen, state.IsOpen, "step %d is_open", i+1)
		assert.Equal(t, want.snap, state.SnapshotCount, "step %d snapshot_count", i+1)
		assert.Equal(t, want.ah, state.AfterHoursSnapshotCount, "step %d after_hours_snapshot_count", i+1)
		assert.Equal(t, want.day, state.MarketDayCount, "step %d market_day_count", i+1)
		assert.Equal(t, Transition{Closed: want.closed, Opened: want.opened}, tr, "step %d transition", i+1)
		assert.Equal(t, lifecycleTime, state.UpdatedAt)
	}
}

func TestAdvance_InstantCycle(t *testing.T) {
	t.Parallel()

	cfg := LifecycleConfig{SnapshotsPerMarketDay: 3, AfterHoursSnapshots: 0}
	state := entity.NewMarketState()

	var tr Transition
	for range 2 {
		state, tr = Advance(state, cfg, lifecycleTime)
		require.Equal(t, Transition{}, tr)
	}

	state, tr = Advance(state, cfg, lifecycleTime)
	assert.Equal(t, Transition{Closed: true, Opened: true}, tr)
	assert.True(t, state.IsOpen, "no after-hours phase is observed")
	assert.Equal(t, 0, state.SnapshotCount)
	assert.Equal(t, 1, state.MarketDayCount)
}

func TestAdvance_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	state := entity.MarketState{IsOpen: true, SnapshotCount: 2, MarketDayCount: 4}
	next, tr := Advance(state, LifecycleConfig{SnapshotsPerMarketDay: 3, AfterHoursSnapshots: 1}, lifecycleTime)

	assert.True(t, tr.Closed)
	assert.Equal(t, entity.MarketState{IsOpen: true, SnapshotCount: 2, MarketDayCount: 4}, state)
	assert.False(t, next.IsOpen)
}
