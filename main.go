package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"eventpal/internal/app"
	"eventpal/internal/config"
	"eventpal/internal/logs"
	"eventpal/internal/observability"
)

func main() {
	logs.Init(logrus.InfoLevel)
	cfg := config.Load()

	tp := observability.ConfigureTraceProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	watermillLogger := watermill.NewStdLogger(false, false)

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open postgres connection")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(watermillLogger, redisClient, db, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build application")
	}

	logrus.Info("Service starting...")
	if err := a.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("service stopped with error")
	}
}
