// Package broadcast fans price and market event updates out to WebSocket subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	marketentity "smg_backend/internal/feature/market/domain/entity"
	marketdto "smg_backend/internal/feature/market/transport/http/dto"
	"smg_backend/internal/feature/stocks/domain/entity"
	stockdto "smg_backend/internal/feature/stocks/transport/http/dto"
)

// Message types sent to subscribers.
const (
	TypeStocksUpdate = "stocks_update"
	TypeStockUpdate  = "stock_update"
	TypeEvent        = "event"
)

const queueSize = 256

// Message is the envelope of every frame written to a subscriber.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub keeps the set of subscribers and delivers published messages to them.
// Publishing never blocks: when the queue is full the message is dropped, and
// subscribers that cannot keep up are disconnected.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	count      atomic.Int64
	done       chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a Hub. Run must be started before subscribers connect.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, queueSize),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Kiosk and display frontends are served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run delivers messages until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 遅いクライアントは切断
					slog.Warn("dropping slow websocket subscriber", "remote_addr", c.remoteAddr)
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// PublishStocks sends the full stock list.
func (h *Hub) PublishStocks(stocks []entity.Stock) {
	h.publish(TypeStocksUpdate, stockdto.NewStockResponses(stocks))
}

// PublishStock sends a single changed stock.
func (h *Hub) PublishStock(s entity.Stock) {
	h.publish(TypeStockUpdate, stockdto.NewStockResponse(s))
}

// PublishEvents sends one message per market event.
func (h *Hub) PublishEvents(events []marketentity.MarketEvent) {
	for _, e := range events {
		h.publish(TypeEvent, marketdto.NewMarketEventResponse(e))
	}
}

func (h *Hub) publish(typ string, data any) {
	payload, err := json.Marshal(Message{Type: typ, Data: data})
	if err != nil {
		slog.Error("failed to encode broadcast message", "type", typ, "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		slog.Warn("broadcast queue full, message dropped", "type", typ)
	}
}

// ServeWS upgrades the request to a WebSocket subscription.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote_addr", c.Request.RemoteAddr, "error", err)
		return
	}

	cl := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, queueSize),
		remoteAddr: c.Request.RemoteAddr,
	}

	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go cl.writePump()
	go cl.readPump()
}
