package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orderdesk/backoffice/internal/config"
	"github.com/orderdesk/backoffice/internal/httpx"
	kafkax "github.com/orderdesk/backoffice/internal/kafka"
	"github.com/orderdesk/backoffice/internal/orders"
	"github.com/orderdesk/backoffice/internal/postgres"
	"github.com/orderdesk/backoffice/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal("db schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for the archive audit side channel
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderArchived, 1024)
	prod.Start(ctx)

	// Domain wiring
	repo := &orders.Repo{DB: db, Stock: &orders.StockLedger{DB: db}}
	svc, err := orders.NewService(orders.ServiceDeps{
		Store:       repo,
		Carts:       &orders.CartStore{Redis: rdb},
		Publisher:   prod,
		Logger:      log,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatal("service wiring", zap.Error(err))
	}

	router := httpx.NewRouter()
	(&httpx.CartsHandler{Service: svc}).Register(router)
	(&httpx.OrdersHandler{
		Service:  svc,
		Repo:     repo,
		Turnover: &orders.TurnoverRepo{DB: db},
		Redis:    rdb,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
}
