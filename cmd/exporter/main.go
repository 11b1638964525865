package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orderdesk/backoffice/internal/audit"
	"github.com/orderdesk/backoffice/internal/config"
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

	exp := &audit.Exporter{
		DB:    db,
		Redis: rdb,
		Log:   log,
	}

	group := getenv("EXPORTER_GROUP", "audit-exporter")
	workers := mustAtoi(os.Getenv("EXPORTER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderArchived, workers)

	go func() {
		log.Info("exporter consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicOrderArchived),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, exp.HandleOrderArchived); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
