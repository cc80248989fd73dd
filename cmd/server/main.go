package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"smg_backend/internal/app/di"
	"smg_backend/internal/app/router"
	authhandler "smg_backend/internal/feature/auth/transport/handler"
	authusecase "smg_backend/internal/feature/auth/usecase"
	markethandler "smg_backend/internal/feature/market/transport/handler"
	marketusecase "smg_backend/internal/feature/market/usecase"
	stocksadapters "smg_backend/internal/feature/stocks/adapters"
	stockshandler "smg_backend/internal/feature/stocks/transport/handler"
	stocksusecase "smg_backend/internal/feature/stocks/usecase"
	swipehandler "smg_backend/internal/feature/swipe/transport/handler"
	swipeusecase "smg_backend/internal/feature/swipe/usecase"
	"smg_backend/internal/platform/broadcast"
	"smg_backend/internal/platform/config"
	platformdb "smg_backend/internal/platform/db"
	platformhandler "smg_backend/internal/platform/http/handler"
	jwtmw "smg_backend/internal/platform/jwt"
	platformredis "smg_backend/internal/platform/redis"
	"smg_backend/internal/platform/scheduler"
	"smg_backend/internal/shared/ratelimiter"
)

const (
	tokenExpiration  = 12 * time.Hour
	snapshotCacheTTL = time.Minute
	shutdownTimeout  = 10 * time.Second
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg := config.LoadMarketConfig()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := platformdb.OpenDB(platformdb.LoadConfigFromEnv())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to access database handle", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		slog.Warn("Redis unavailable. Running without cache; event state is kept in memory.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Broadcast
	hub := broadcast.NewHub()
	go hub.Run(ctx)

	// Repository
	stockRepo := stocksadapters.NewStockRepository(db)
	marketRepo := stocksadapters.NewMarketStateRepository(db)
	historyRepo := di.NewHistoryRepository(rdb, db, snapshotCacheTTL)
	eventState := di.NewEventStateStore(rdb)

	// Usecase
	codec := cfg.Codec()
	stockUC := stocksusecase.NewStockUsecase(stockRepo, historyRepo, hub, cfg.BasePrice)
	scorer := swipeusecase.NewScorer(cfg.ScoringConfig(), codec, nil)
	swipeUC := swipeusecase.NewSwipeUsecase(stockRepo, scorer, codec, hub)
	authUC := authusecase.NewAuthUsecase(cfg.AdminPasswordHash, jwtmw.RoleAdmin, jwtmw.NewGenerator(cfg.JWTSecret, tokenExpiration))

	detector := marketusecase.NewDetector(eventState, cfg.BigCrashThreshold)
	tickJob := marketusecase.NewTickJob(stockRepo, marketRepo, hub, nil, cfg.TickConfig())
	snapshotJob := marketusecase.NewSnapshotJob(stockRepo, historyRepo, marketRepo, detector, hub, cfg.SnapshotConfig())

	// Scheduler
	runner := scheduler.New(ctx)
	if _, err := runner.Add(tickJob, cfg.TickInterval); err != nil {
		slog.Error("failed to schedule job", "error", err)
		os.Exit(1)
	}
	if _, err := runner.Add(snapshotJob, cfg.SnapshotInterval); err != nil {
		slog.Error("failed to schedule job", "error", err)
		os.Exit(1)
	}

	// Handler
	handlers := router.Handlers{
		Health:         platformhandler.NewHealthHandler(sqlDB),
		Auth:           authhandler.NewAuthHandler(authUC),
		Stocks:         stockshandler.NewStockHandler(stockUC),
		Swipe:          swipehandler.NewSwipeHandler(swipeUC),
		Market:         markethandler.NewMarketHandler(marketRepo, cfg.LifecycleConfig()),
		WebSocket:      hub.ServeWS,
		SwipeRateLimit: ratelimiter.Middleware(ratelimiter.NewRateLimiter(cfg.SwipeRateLimitPerMin, time.Minute)),
		JWTSecret:      cfg.JWTSecret,
	}

	// ルータ生成
	r := router.NewRouter(handlers, corsMiddleware(cfg.CORSOrigins))

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. Admin routes will reject every request.")
	}
	if cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH is not set. Admin login is disabled.")
	}

	runner.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	runner.Stop()
}

// corsMiddleware allows the configured kiosk and display origins, or every
// origin when none are configured.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	c := cors.DefaultConfig()
	c.AllowOrigins = origins
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	return cors.New(c)
}
