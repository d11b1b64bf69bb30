package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	amqpadapter "phishsim/internal/adapter/amqp"
	httpadapter "phishsim/internal/adapter/http"
	"phishsim/internal/adapter/postgres"
	smtpadapter "phishsim/internal/adapter/smtp"
	"phishsim/internal/adapter/usecase"
	"phishsim/internal/config"
	"phishsim/internal/core/port"
	"phishsim/internal/core/rewrite"
	"phishsim/internal/db"
	"phishsim/internal/scheduler"
)

// main is the entry point of the campaign engine. It loads configuration,
// optionally runs database migrations, initializes the pool, repositories
// and usecases, starts the campaign scheduler and the public tracking
// server, and on receiving a termination signal shuts both down
// gracefully. In-flight campaign dispatches are allowed to drain.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemo {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		}
	}

	// Notifications are best-effort: an unreachable broker downgrades to a
	// no-op sink instead of failing boot.
	var notifier port.Notifier
	if amqpNotifier, err := amqpadapter.NewNotifier(cfg.AMQP.Addr, cfg.AMQP.Queue); err != nil {
		logger.Warn("notification broker unavailable, notifications disabled", slog.Any("error", err))
		notifier = amqpadapter.NopNotifier{}
	} else {
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	campaigns := postgres.NewCampaignRepository(pool)
	results := postgres.NewResultRepository(pool)
	rewriter := rewrite.New(cfg.Tracking.BaseURL)

	tracker := usecase.NewTracker(campaigns, results, notifier, rewriter, logger)
	dispatcher := usecase.NewDispatcher(campaigns, results, notifier, rewriter,
		smtpadapter.NewMailer, cfg.SMTP.SendTimeout, logger)

	sched := scheduler.New(campaigns, dispatcher, scheduler.Config{
		Interval:    cfg.Scheduler.Interval,
		Backoff:     cfg.Scheduler.Backoff,
		MaxBackoff:  cfg.Scheduler.MaxBackoff,
		MaxFailures: cfg.Scheduler.MaxFailures,
	}, logger)
	if err = sched.Start(); err != nil {
		logger.Error("scheduler start error", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	handler := httpadapter.NewHandler(tracker, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	ctx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()
	if err = srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
