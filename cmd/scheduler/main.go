package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property_service_backend/internal/email"
	"property_service_backend/internal/messagelog"
	"property_service_backend/internal/notification"
	"property_service_backend/internal/scheduler"
	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/config"
	"property_service_backend/platform/db"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	val := validator.New()

	directory, err := notification.LoadDirectory(cfg, val)
	if err != nil {
		log.Error("failed to load staff directory", "error", err)
		panic("failed to load staff directory: " + err.Error())
	}

	// Staff alerts are logged like tenant replies so status callbacks match them.
	sender := messagelog.NewRecordingSender(whatsapp.NewClient(cfg, log), messagelog.New(pool), log)

	var mailer notification.Mailer
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		mailer = smtp
	}
	fanout := notification.NewFanout(directory, sender, mailer, cfg.GetNotifySendDelay(), log)

	worker, err := scheduler.NewWorker(cfg, fanout, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
