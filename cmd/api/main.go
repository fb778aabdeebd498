package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-seat-booking/internal/api"
	"github.com/sanosuguru/go-show-seat-booking/internal/api/handler"
	custommw "github.com/sanosuguru/go-show-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-show-seat-booking/internal/application"
	"github.com/sanosuguru/go-show-seat-booking/internal/config"
	"github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/queue"
	redisinfra "github.com/sanosuguru/go-show-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-show-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-show-seat-booking/internal/worker"
)

func main() {
	// .env があれば読み込む（ローカル開発用）
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL接続とマイグレーション
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（座席数キャッシュ用、接続できなくても起動は続行）
	var seatCache redisinfra.SeatCacheInterface
	redisClient := redisinfra.NewClient(&cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisinfra.Ping(ctx, redisClient); err != nil {
			logger.Warn("Redis接続に失敗、キャッシュなしで続行", zap.Error(err))
		} else {
			seatCache = redisinfra.NewSeatCache(redisClient)
		}
		cancel()
	}
	defer redisClient.Close()

	// イベント発行（AMQP_URL 未設定なら無効）
	var publisher queue.EventPublisher
	var publisherCloser *queue.Publisher
	if cfg.AMQP.URL != "" {
		p, err := queue.NewPublisher(cfg.AMQP.URL)
		if err != nil {
			logger.Warn("ブローカー接続に失敗、イベント発行なしで続行", zap.Error(err))
		} else {
			publisher = p
			publisherCloser = p
		}
	}
	if publisherCloser != nil {
		defer publisherCloser.Close()
	}

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	showRepo := postgres.NewShowRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	bookingService := application.NewBookingService(txManager, bookingRepo, seatRepo, showRepo, seatCache, publisher, cfg.Booking)
	showService := application.NewShowService(showRepo, cfg.Booking)
	seatService := application.NewSeatService(seatRepo, showRepo, seatCache, m)

	// 保留失効スイーパー
	sweeper := worker.NewHoldExpirySweeper(bookingService, cfg.Booking.SweepInterval, m)
	go sweeper.Start(context.Background())

	// Echo設定
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	// ルーティング
	showHandler := handler.NewShowHandler(showService)
	seatHandler := handler.NewSeatHandler(seatService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	healthHandler := handler.NewHealthHandler(db)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/shows", showHandler.Create)
	v1.GET("/shows", showHandler.List)
	v1.GET("/shows/:id", showHandler.GetByID)
	v1.DELETE("/shows/:id", showHandler.Delete)
	v1.GET("/shows/:id/seats", seatHandler.GetSeatMap)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.List)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.POST("/bookings/:id/confirm", bookingHandler.Confirm)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth(cfg.Metrics.User, cfg.Metrics.Password))

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	logger.Info("サーバー起動",
		zap.String("port", cfg.Server.Port),
		zap.Duration("hold_ttl", cfg.Booking.HoldTTL),
		zap.Duration("sweep_interval", cfg.Booking.SweepInterval),
	)

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	// スイーパーを先に止める
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("シャットダウン完了")
}
