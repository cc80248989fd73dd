package broadcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	"smg_backend/internal/feature/stocks/domain/entity"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	hub, url := startHub(t)
	a := dial(t, hub, url, 1)
	b := dial(t, hub, url, 2)

	hub.PublishStocks([]entity.Stock{
		{Ticker: "AAA", Title: "Alice", IsActive: true, Price: 1200},
		{Ticker: "BBB", Title: "Bob", IsActive: true, Price: 800},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		assert.Equal(t, TypeStocksUpdate, f.Type)

		var stocks []map[string]any
		require.NoError(t, json.Unmarshal(f.Data, &stocks))
		require.Len(t, stocks, 2)
		assert.Equal(t, "AAA", stocks[0]["ticker"])
		assert.Equal(t, 1200.0, stocks[0]["price"])
	}
}

func TestHub_MessageTypes(t *testing.T) {
	t.Parallel()

	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	ref := 100.0
	hub.PublishStock(entity.Stock{Ticker: "AAA", Price: 110, ReferencePrice: &ref})

	f := readFrame(t, conn)
	assert.Equal(t, TypeStockUpdate, f.Type)
	var stock map[string]any
	require.NoError(t, json.Unmarshal(f.Data, &stock))
	assert.Equal(t, "AAA", stock["ticker"])
	assert.InDelta(t, 10.0, stock["percentage_change"], 1e-9)

	pct := -0.12
	hub.PublishEvents([]marketentity.MarketEvent{
		{ID: "evt-1", Kind: marketentity.EventBigCrash, Ticker: "AAA", Price: 88, PercentChange: &pct},
		{ID: "evt-2", Kind: marketentity.EventMarketClose, MarketDay: 3},
	})

	first := readFrame(t, conn)
	assert.Equal(t, TypeEvent, first.Type)
	var crash map[string]any
	require.NoError(t, json.Unmarshal(first.Data, &crash))
	assert.Equal(t, "big_crash", crash["kind"])
	assert.InDelta(t, -12.0, crash["percent_change"], 1e-9)

	second := readFrame(t, conn)
	assert.Equal(t, TypeEvent, second.Type)
	var closing map[string]any
	require.NoError(t, json.Unmarshal(second.Data, &closing))
	assert.Equal(t, "market_close", closing["kind"])
	assert.Equal(t, 3.0, closing["market_day"])
}

func TestHub_UnregistersClosedSubscriber(t *testing.T) {
	t.Parallel()

	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	t.Parallel()

	// Run は起動しない: キューが溢れても Publish は戻る
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for range queueSize + 10 {
			hub.PublishStock(entity.Stock{Ticker: "AAA", Price: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
}

func TestHub_StopDisconnectsSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn := dial(t, hub, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", 1)
	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection is closed when the hub stops")
}
