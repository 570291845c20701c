package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfryer1193/alttext/internal/app"
	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/internal/config"
	"github.com/dfryer1193/alttext/internal/events"
	"github.com/dfryer1193/alttext/internal/logging"
	"github.com/dfryer1193/alttext/internal/middleware"
	"github.com/dfryer1193/alttext/internal/rest"
	"github.com/dfryer1193/alttext/internal/scheduler"
	webhook "github.com/dfryer1193/alttext/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid server config")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close resources")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.Logging(),
		a.Metrics.Middleware(),
		gin.CustomRecovery(middleware.HandlePanics()),
	)

	rest.NewApi(router, rest.Dependencies{
		Library:         a.Library,
		Hooks:           a.Hooks,
		Authorizer:      a.Authorizer,
		Tokens:          auth.NewTokenParser(cfg.Auth.JWTSecret),
		BackfillLimiter: middleware.NewIPRateLimiter(middleware.PerMinute(cfg.Backfill.RatePerMinute), 1),
		OnRateLimited:   a.Metrics.RateLimitDropped.Inc,
		Metrics:         a.Metrics.Handler(),
		Ping:            a.Database.DB().PingContext,
	})

	if cfg.Auth.WebhookSecret != "" {
		webhook.NewWebhookHandler(cfg.Auth.WebhookSecret, a.Hooks).RegisterRoutes(router)
	} else {
		log.Warn().Msg("WEBHOOK_SECRET not set, upload webhook disabled")
	}

	if cfg.NATS.URL != "" {
		subscriber, err := events.NewUploadSubscriber(cfg.NATS.URL, a.Hooks)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		if err := subscriber.Subscribe(cfg.NATS.UploadSubject, cfg.NATS.QueueGroup); err != nil {
			log.Fatal().Err(err).Msg("Failed to subscribe to upload events")
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close NATS subscriber")
			}
		}()
	}

	var sched *scheduler.Scheduler
	if cfg.Backfill.Schedule != "" {
		sched, err = scheduler.New(cfg.Backfill.Schedule, scheduler.NewBackfillJob(a.Hooks, cfg.Backfill.BatchSize))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backfill scheduler")
		}
		sched.Start()
		log.Info().Str("schedule", cfg.Backfill.Schedule).Msg("Scheduled backfill enabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
