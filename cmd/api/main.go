package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property_service_backend/internal/clients"
	"property_service_backend/internal/conversation"
	"property_service_backend/internal/email"
	apphttp "property_service_backend/internal/http"
	"property_service_backend/internal/http/router"
	"property_service_backend/internal/intake"
	"property_service_backend/internal/messagelog"
	"property_service_backend/internal/notification"
	"property_service_backend/internal/scheduler"
	"property_service_backend/internal/session"
	"property_service_backend/internal/webhook"
	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/config"
	"property_service_backend/platform/db"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Shared validator instance for dependency injection
	val := validator.New()

	messageLog := messagelog.New(pool)
	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_PHONE_NUMBER_ID not configured; replies will not be delivered")
	}
	messenger := messagelog.NewRecordingSender(whatsappClient, messageLog, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	directory, err := notification.LoadDirectory(cfg, val)
	if err != nil {
		log.Error("failed to load staff directory", "error", err)
		panic("failed to load staff directory: " + err.Error())
	}
	var mailer notification.Mailer
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		mailer = smtp
	}
	fanout := notification.NewFanout(directory, messenger, mailer, cfg.GetNotifySendDelay(), log)

	g, gctx := errgroup.WithContext(ctx)

	outbox, closeOutbox := initOutbox(gctx, g, cfg, fanout, log)
	defer closeOutbox()

	sessions := session.NewStore(cfg, log)
	sessions.Start(gctx)
	defer sessions.Shutdown()

	engine := conversation.NewEngine(conversation.Deps{
		Sessions:  sessions,
		Messenger: messenger,
		Resolver:  clients.NewResolver(clients.NewRepository(pool), cfg, log),
		Intake:    intake.New(intake.NewRepository(pool), intake.NewSequenceGenerator(pool), val, log),
		Outbox:    outbox,
		Office:    cfg,
		Logger:    log,
	})

	webhookModule, err := webhook.NewModule(cfg, cfg, engine, messageLog, val, log)
	if err != nil {
		log.Error("failed to initialize webhook module", "error", err)
		panic("failed to initialize webhook module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{webhookModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

// initOutbox picks the asynq transport when Redis is configured and the
// in-process queue otherwise.
func initOutbox(ctx context.Context, g *errgroup.Group, cfg *config.Config, fanout *notification.Fanout, log *logger.Logger) (notification.Outbox, func()) {
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err == nil {
			log.Info("staff notifications queued through redis", "queue", cfg.GetAsynqQueueName())
			return client, func() { _ = client.Close() }
		}
		log.Error("failed to initialize scheduler client, using in-process outbox", "error", err)
	} else {
		log.Warn("REDIS_URL not configured; staff notifications delivered in-process")
	}

	outbox := notification.NewMemoryOutbox(fanout, cfg.GetOutboxBuffer(), log)
	g.Go(func() error {
		outbox.Run(ctx)
		return nil
	})
	return outbox, func() {}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
