package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mitzori/order-tracking/internal/cache"
	"github.com/mitzori/order-tracking/internal/config"
	"github.com/mitzori/order-tracking/internal/db"
	"github.com/mitzori/order-tracking/internal/kafka"
	"github.com/mitzori/order-tracking/internal/logger"
	"github.com/mitzori/order-tracking/internal/repository/postgresql"
	"github.com/mitzori/order-tracking/internal/server"
	"github.com/mitzori/order-tracking/internal/storage"
)

const (
	auditWorkers   = 3
	auditBatchSize = 10
	auditTimeout   = 2 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg := config.Load()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.GetPool().Close()

	orderRepo := postgresql.NewOrderRepo(database)
	historyRepo := postgresql.NewHistoryRepo(database)
	userRepo := postgresql.NewUserRepo(database)

	if err := userRepo.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("admin user init failed", zap.Error(err))
	}

	var trackingCache storage.TrackingCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewTrackingCache(cfg.Redis.Addr, log)
		if err != nil {
			log.Fatal("redis init failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer func() {
			_ = redisCache.Close()
		}()
		trackingCache = redisCache
		log.Info("tracking cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	stg := storage.NewTrackingStorage(database, orderRepo, historyRepo, trackingCache)

	var producer kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewWriterProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("audit pipeline publishing to kafka",
			zap.String("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		producer = kafka.NewConsoleProducer(log)
		log.Info("audit pipeline on console sink")
	}

	auditManager := server.NewAuditManager(producer, log, auditWorkers, auditBatchSize, auditTimeout)

	srv := server.New(stg, userRepo, auditManager, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}
