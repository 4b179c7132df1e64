package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sampleapps/internal/cache"
	"sampleapps/internal/config"
	"sampleapps/internal/mqhandler"
	"sampleapps/internal/repository"
	"sampleapps/pkg/db"
	"sampleapps/pkg/logger"
	"sampleapps/pkg/mq"
	"sampleapps/pkg/redis"
	"sampleapps/pkg/util"
)

const serviceName = "sampleapps-worker"

func main() {
	cfg := config.MustLoad()

	log := logger.NewLogger()
	defer log.Sync()

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redis.NewRedisClient(cfg.Redis, log)
	defer rdb.Close()

	// DLQ publisher
	dlqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init DLQ publisher", zap.Error(err))
	}
	defer dlqPublisher.Close()

	activityRepo := repository.NewActivityRepository(dbConn, log)
	expenseRepo := repository.NewExpenseRepository(dbConn, nil, log)
	budgetRepo := repository.NewBudgetRepository(dbConn, log)
	statsCache := cache.NewStatsCache(rdb, cfg.App.StatsCacheTTL, log)

	deduper := util.NewDeduper(rdb, cfg.Worker.DedupTTL, log)
	retries := util.NewRetryCounter(rdb, cfg.Worker.RetryTTL)

	bindings := mqhandler.Bindings(
		mqhandler.NewActivityHandler(activityRepo, deduper, log),
		mqhandler.NewHabitStatsHandler(statsCache, log),
		mqhandler.NewBudgetHandler(expenseRepo, budgetRepo, activityRepo, deduper, log),
	)

	// 每个 routing key 一个 consumer
	var (
		consumers []*mq.Consumer
		wg        sync.WaitGroup
	)
	for _, b := range bindings {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, b.Queue, b.RoutingKey, log)
		if err != nil {
			log.Fatal("Failed to create consumer",
				zap.String("queue", b.Queue),
				zap.Error(err),
			)
		}
		consumer.SetHandler(b.Handler)
		consumer.WithDeadLetter(dlqPublisher, serviceName).
			WithRetryLimit(retries, cfg.Worker.MaxRetries)
		consumers = append(consumers, consumer)

		wg.Add(1)
		go func(c *mq.Consumer, queue string) {
			defer wg.Done()
			log.Info("Consumer started", zap.String("queue", queue))
			if err := c.StartConsuming(); err != nil {
				log.Error("Consumer stopped with error", zap.String("queue", queue), zap.Error(err))
			}
		}(consumer, b.Queue)
	}

	// health + metrics
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		for _, consumer := range consumers {
			if !consumer.IsConnected() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "consumers": len(consumers)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: cfg.Worker.MetricsPort, Handler: r}
	go func() {
		log.Info("Worker metrics server starting", zap.String("addr", cfg.Worker.MetricsPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")
	for _, c := range consumers {
		c.Stop()
	}
	wg.Wait()
	for _, c := range consumers {
		c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Metrics server forced to shutdown", zap.Error(err))
	}

	log.Info("Worker exited")
}
