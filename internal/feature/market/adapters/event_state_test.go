package adapters

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smg_backend/internal/feature/market/usecase"
)

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestEventStateStores_RoundTrip(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) usecase.EventStateStore{
		"redis": func(t *testing.T) usecase.EventStateStore {
			client, _ := setupTestRedis(t)
			return NewEventStateRedis(client, "market")
		},
		"memory": func(t *testing.T) usecase.EventStateStore {
			return NewEventStateMemory()
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)
			ctx := context.Background()

			empty, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, usecase.NewDetectorState(), empty)

			st := usecase.NewDetectorState()
			st.Leader = "AAA"
			st.AllTimeHigh["AAA"] = 1234.5678
			st.AllTimeHigh["BBB"] = 0.01
			st.Crashed["BBB"] = true
			require.NoError(t, store.Save(ctx, st))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, st, got)

			// 上書き保存で古い値が残らないこと
			next := usecase.NewDetectorState()
			next.Leader = "BBB"
			next.AllTimeHigh["BBB"] = 2
			require.NoError(t, store.Save(ctx, next))

			got, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, next, got)
		})
	}
}

func TestEventStateMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewEventStateMemory()
	ctx := context.Background()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	st.AllTimeHigh["AAA"] = 10

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.AllTimeHigh, "mutating a loaded state must not change the store")
}

func TestEventStateRedis_Keys(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	store := NewEventStateRedis(client, "market")

	st := usecase.NewDetectorState()
	st.Leader = "AAA"
	st.AllTimeHigh["AAA"] = 12.5
	st.Crashed["CCC"] = true
	require.NoError(t, store.Save(context.Background(), st))

	leader, err := mr.Get("market:leader")
	require.NoError(t, err)
	assert.Equal(t, "AAA", leader)
	assert.Equal(t, "12.5", mr.HGet("market:ath", "AAA"))
	members, err := mr.Members("market:crashed")
	require.NoError(t, err)
	assert.Equal(t, []string{"CCC"}, members)
}
