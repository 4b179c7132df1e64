package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sampleapps/internal/cache"
	"sampleapps/internal/config"
	"sampleapps/internal/handler"
	"sampleapps/internal/httpserver"
	"sampleapps/internal/repository"
	"sampleapps/internal/service/auth"
	"sampleapps/pkg/circuitbreaker"
	pkgconfig "sampleapps/pkg/config"
	"sampleapps/pkg/db"
	"sampleapps/pkg/logger"
	"sampleapps/pkg/metrics"
	"sampleapps/pkg/mq"
	"sampleapps/pkg/outbox"
	"sampleapps/pkg/redis"
)

func main() {
	migrate := flag.Bool("migrate", pkgconfig.GetEnv("AUTO_MIGRATE", "") == "true", "apply the schema before serving")
	flag.Parse()

	// 1. Load config
	cfg := config.MustLoad()

	log := logger.NewLogger()
	defer log.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx, dbConn, log)
		cancel()
		if err != nil {
			log.Fatal("Schema migration failed", zap.Error(err))
		}
	}

	// 3. Init Redis + RabbitMQ publisher
	rdb := redis.NewRedisClient(cfg.Redis, log)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// 4. Init repositories
	outboxRepo := outbox.NewRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn, log)
	habitRepo := repository.NewHabitRepository(dbConn, log)
	checkInRepo := repository.NewCheckInRepository(dbConn, outboxRepo, log)
	cardRepo := repository.NewCardRepository(dbConn, outboxRepo, log)
	assessmentRepo := repository.NewAssessmentRepository(dbConn, log)
	expenseRepo := repository.NewExpenseRepository(dbConn, outboxRepo, log)
	budgetRepo := repository.NewBudgetRepository(dbConn, log)
	plantRepo := repository.NewPlantRepository(dbConn, outboxRepo, log)
	activityRepo := repository.NewActivityRepository(dbConn, log)

	// 5. Init services
	statsCache := cache.NewStatsCache(rdb, cfg.App.StatsCacheTTL, log)
	authService := auth.NewService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	replayService := outbox.NewReplayService(outboxRepo, publisher, log)
	loc := cfg.App.Location()

	// 6. Outbox dispatcher
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()

	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries).
		WithCircuitBreaker(circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			FailureThreshold:    cfg.Outbox.BreakerThreshold,
			SuccessThreshold:    2,
			Timeout:             cfg.Outbox.BreakerTimeout,
			HalfOpenMaxRequests: 1,
			OnStateChange: func(from, to circuitbreaker.State) {
				metrics.SetCircuitBreakerState("outbox_publisher", int(to))
				log.Warn("Outbox publisher circuit state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}))
	go dispatcher.Start(dispatcherCtx)

	// 7. Init handlers + router
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Habit:      handler.NewHabitHandler(habitRepo, checkInRepo, statsCache, loc, log),
		Card:       handler.NewCardHandler(cardRepo, log),
		Conspiracy: handler.NewConspiracyHandler(assessmentRepo, log),
		Expense:    handler.NewExpenseHandler(expenseRepo, budgetRepo, loc, log),
		Plant:      handler.NewPlantHandler(plantRepo, loc, log),
		Activity:   handler.NewActivityHandler(activityRepo, log),
		Admin:      handler.NewAdminHandler(replayService, log),
	}, cfg.JWT.Secret, log, dbConn, publisher)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server start failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stopDispatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
