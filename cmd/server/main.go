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

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/router"
	"github.com/RatanSinghYadav/scheme-app-api/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger: dev pretty, prod JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the sync lock, the e-mail queue and the DLQ. The API still
	// serves without it.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, notifications and distributed sync lock disabled")
			rdb = nil
		}
	}

	source, err := infra.NewSourceDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare external source")
	}
	defer source.Close()
	if !source.Configured() {
		log.Warn().Msg("MSSQL_SERVER not set, reconciliation will fail until configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *worker.Pool
	if rdb != nil {
		mailer := infra.NewMailer(cfg)
		if !mailer.Configured() {
			log.Warn().Msg("SMTP_HOST not set, queued notifications will be dead-lettered")
		}
		pool = worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
			worker.JobEmail: worker.NewEmailWorker(mailer),
		})
	}

	syncSvc := router.NewSyncService(cfg, db, rdb, source)

	var scheduler *worker.SyncScheduler
	if cfg.SyncEnabled {
		scheduler, err = worker.NewSyncScheduler(syncSvc, worker.SchedulerOptions{
			Spec:         cfg.SyncCron,
			BreakerState: source.BreakerState,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create sync scheduler")
		}
		scheduler.Start()
		if cfg.SyncOnStartup {
			go scheduler.Tick()
		}
	} else {
		log.Info().Msg("sync scheduler disabled")
	}

	r := router.New(router.Deps{Config: cfg, DB: db, Redis: rdb, Source: source, Sync: syncSvc})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("scheme API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("sync run still in progress at shutdown")
		}
	}
	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server exited")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
