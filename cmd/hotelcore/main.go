// Package main запускает HTTP-сервер ядра бронирования отеля.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/cache"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/config"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/handler"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/loyalty"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/middleware"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/notify"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/repository"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/scheduler"
	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/service"
)

// store объединяет транзакционное хранилище и очередь событий лояльности.
type store interface {
	service.Store
	loyalty.Outbox
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var availabilityCache service.AvailabilityCache
	if cfg.RedisAddress != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddress)
		if err != nil {
			sugar.Warnw("redis unavailable, running without availability cache", "addr", cfg.RedisAddress, "error", err.Error())
		} else {
			defer rdb.Close()
			availabilityCache = cache.NewRedisCache(rdb, cache.DefaultTTL)
		}
	}

	var publisher notify.Publisher = notify.LogPublisher{Logger: logger}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			sugar.Warnw("rabbitmq unavailable, notifications go to the log", "error", err.Error())
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}
	dispatcher := notify.NewDispatcher(publisher, logger, 0)

	svc := service.NewService(st, availabilityCache, dispatcher, logger, service.Options{
		GateTimeout:          cfg.GateTimeout,
		AllowCheckedInCancel: cfg.AllowCheckedInCancel,
		SkipCleaning:         cfg.SkipCleaning,
		PointsPerDollar:      cfg.PointsPerDollar,
		Location:             loc,
	})
	defer svc.Close()

	sweeps, err := scheduler.New(svc, cfg.SweepSchedule, loc, logger)
	if err != nil {
		sugar.Fatalw("scheduler initialization error", "error", err.Error())
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.StaffSecret)
	if cfg.StaffSecret == "" {
		sugar.Warnw("STAFF_SECRET is not set, staff tokens are valid until restart", "token", authMiddleware.Token(1))
	}

	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(ctx)
	})

	g.Go(func() error {
		return sweeps.Run(ctx)
	})

	if cfg.LoyaltySystemAddress != "" {
		relay := loyalty.NewRelay(st, loyalty.NewClient(cfg.LoyaltySystemAddress), logger, 0)
		g.Go(func() error {
			return relay.Run(ctx)
		})
	} else {
		sugar.Warn("LOYALTY_SYSTEM_ADDRESS is not set, loyalty events stay in the outbox")
	}

	g.Go(func() error {
		sugar.Infow("starting hotel booking server", "addr", cfg.RunAddress, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl

	return zcfg.Build()
}

// openStore подключается к PostgreSQL или, если DATABASE_URI пуст, поднимает демо-отель в памяти.
func openStore(cfg *config.Config) (store, error) {
	if cfg.DatabaseURI == "" {
		m := repository.NewMemoryStore(cfg.GateTimeout)
		m.Seed(repository.DemoFixtures())
		return m, nil
	}

	pg, err := repository.NewPostgresStore(cfg.DatabaseURI, cfg.GateTimeout)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
