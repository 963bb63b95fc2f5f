package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/admin"
	"github.com/ricirt/booking-backend/internal/api"
	"github.com/ricirt/booking-backend/internal/authn"
	"github.com/ricirt/booking-backend/internal/availability"
	"github.com/ricirt/booking-backend/internal/booking"
	"github.com/ricirt/booking-backend/internal/clock"
	"github.com/ricirt/booking-backend/internal/config"
	"github.com/ricirt/booking-backend/internal/db"
	"github.com/ricirt/booking-backend/internal/dispatcher"
	"github.com/ricirt/booking-backend/internal/metrics"
	"github.com/ricirt/booking-backend/internal/outboxrelay"
	"github.com/ricirt/booking-backend/internal/ratelimiter"
	"github.com/ricirt/booking-backend/internal/repository"
	"github.com/ricirt/booking-backend/internal/requeuer"
	"github.com/ricirt/booking-backend/internal/sender"
	"github.com/ricirt/booking-backend/internal/validation"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clk := clock.New()
	v := validation.New()

	beginner := repository.NewBeginner(pool)
	providerExistence := admin.NewProviderExistence(pool)
	appointments := repository.NewPgAppointmentStore(pool)
	schedules := repository.NewPgWorkScheduleStore(pool, providerExistence)
	outbox := repository.NewPgOutboxStore(pool)
	notifications := repository.NewPgNotificationStore(pool)
	recipientResolver := admin.NewRecipientResolver(pool)

	authProvider := authn.NewJWTProvider(cfg.JWTSecret)

	bookingEngine := booking.New(beginner, appointments, schedules, outbox, clk, cfg.SlotDurationMinutes)
	availabilityEngine := availability.New(schedules, appointments, clk, cfg.SlotDurationMinutes)

	extSender := sender.NewHTTPSender(
		cfg.ProviderBaseURL, cfg.ProviderAPIKey,
		cfg.ProviderConnTimeout, cfg.ProviderReadTimeout, cfg.ProviderWriteTimeout,
	)
	limiter := ratelimiter.New(cfg.RateLimitPerSec)
	onSent, onFailed, onCircuitOpen := m.DispatchHooks()
	disp := dispatcher.New(cfg, notifications, extSender, limiter, logger, dispatcher.Hooks{
		OnSent:        onSent,
		OnFailed:      onFailed,
		OnCircuitOpen: onCircuitOpen,
	})

	relay := outboxrelay.New(beginner, outbox, notifications, recipientResolver, disp, cfg.RecipientPlaceholder, cfg.OutboxBatchSize, logger)
	req := requeuer.New(notifications, disp, cfg.RequeueStaleSec, cfg.FailedMaxAttempts, logger)

	// ---- background workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	disp.Start(workerCtx)

	if err := relay.Start(workerCtx, cfg.OutboxPollInterval); err != nil {
		logger.Fatal("failed to start outbox relay", zap.Error(err))
	}
	if err := req.Start(workerCtx, cfg.RequeuePollInterval); err != nil {
		logger.Fatal("failed to start stuck requeuer", zap.Error(err))
	}

	// ---- HTTP server ----
	router := api.NewRouter(bookingEngine, availabilityEngine, authProvider, disp, cfg.DefaultTZ, v, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the relay and requeuer between ticks; an in-flight batch runs
	// to completion or rolls back fully before Stop returns.
	relay.Stop()
	req.Stop()

	// 3. Signal dispatcher workers to stop processing new queue items, then
	// wait for in-flight deliveries to finish.
	cancelWorkers()
	disp.Wait()

	logger.Info("server stopped cleanly")
}
