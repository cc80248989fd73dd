package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	// Not parallel: modifies environment variables

	t.Run("not configured", func(t *testing.T) {
		t.Setenv("REDIS_HOST", "")
		_, err := NewRedisClient()
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("REDIS_HOST", mr.Host())
		t.Setenv("REDIS_PORT", mr.Port())
		t.Setenv("REDIS_PASSWORD", "")

		rdb, err := NewRedisClient()
		require.NoError(t, err)
		t.Cleanup(func() { _ = rdb.Close() })
		assert.Equal(t, mr.Addr(), rdb.Options().Addr)
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		host, port := mr.Host(), mr.Port()
		mr.Close()
		t.Setenv("REDIS_HOST", host)
		t.Setenv("REDIS_PORT", port)

		_, err := NewRedisClient()
		assert.Error(t, err)
	})
}
