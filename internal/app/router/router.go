package router

import (
	"github.com/gin-gonic/gin"

	authhandler "smg_backend/internal/feature/auth/transport/handler"
	markethandler "smg_backend/internal/feature/market/transport/handler"
	stockshandler "smg_backend/internal/feature/stocks/transport/handler"
	swipehandler "smg_backend/internal/feature/swipe/transport/handler"
	platformhandler "smg_backend/internal/platform/http/handler"
	jwtmw "smg_backend/internal/platform/jwt"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Health *platformhandler.HealthHandler
	Auth   *authhandler.AuthHandler
	Stocks *stockshandler.StockHandler
	Swipe  *swipehandler.SwipeHandler
	Market *markethandler.MarketHandler

	WebSocket      gin.HandlerFunc
	SwipeRateLimit gin.HandlerFunc // nil disables the limit
	JWTSecret      string
}

func NewRouter(h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware...)

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	r.GET("/stocks", h.Stocks.List)
	r.GET("/stocks/:ticker", h.Stocks.Get)
	r.GET("/stocks/:ticker/snapshots", h.Stocks.Snapshots)
	r.GET("/stocks/:ticker/events", h.Stocks.Events)
	r.GET("/market", h.Market.State)
	if h.WebSocket != nil {
		r.GET("/ws", h.WebSocket)
	}

	// キオスク端末からのスワイプ（IP単位でレート制限）
	swipe := []gin.HandlerFunc{h.Swipe.Swipe}
	if h.SwipeRateLimit != nil {
		swipe = append([]gin.HandlerFunc{h.SwipeRateLimit}, swipe...)
	}
	r.POST("/swipe", swipe...)

	// ログイン（JWT 発行）
	r.POST("/admin/login", h.Auth.Login)

	// 管理者のみ
	admin := r.Group("/admin")
	admin.Use(jwtmw.AuthRequired(h.JWTSecret, jwtmw.RoleAdmin))
	{
		admin.POST("/stocks", h.Stocks.Create)
		admin.POST("/stocks/:ticker/price", h.Stocks.SetPrice)
		admin.POST("/stocks/:ticker/active", h.Stocks.SetActive)
	}

	return r
}
