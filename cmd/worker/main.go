// Package main runs the background job worker (attendance report export to S3).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventgrid/backend/config"
	"github.com/eventgrid/backend/internal/events"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/store/postgres"
	"github.com/eventgrid/backend/internal/worker"
	"github.com/eventgrid/backend/pkg/database"
	"github.com/eventgrid/backend/pkg/queue"
	"github.com/eventgrid/backend/pkg/redis"
	"github.com/eventgrid/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Store.Driver != config.StorePostgres {
		logger.Fatal("worker requires the postgres store", zap.String("driver", cfg.Store.Driver))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ReportsBucket:        cfg.AWS.ReportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Prefix, registry)

	entities := postgres.New(pool, cfg.Database.MaxTxRetries, logger.Named("store"))
	eventSvc := events.NewService(entities, m)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewReportProcessor(eventSvc, s3Client, jobQueue, m, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started", zap.String("bucket", s3Client.ReportsBucket()))

	// Worker metrics on the server port so the same scrape config works.
	metricsSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: m.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
