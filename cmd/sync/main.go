// cmd/sync/main.go runs one reconciliation pass against the external source
// and exits. Usage: go run ./cmd/sync -entity all|products|distributors
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/router"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	entity := flag.String("entity", "all", "what to reconcile: all, products or distributors")
	timeout := flag.Duration("timeout", time.Hour, "abort the run after this long")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without the distributed lock")
			rdb = nil
		}
	}

	source, err := infra.NewSourceDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare external source")
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := router.NewSyncService(cfg, db, rdb, source)

	var results []*dto.SyncResult
	switch *entity {
	case "all":
		var all *dto.SyncAllResponse
		all, err = svc.SyncAll(ctx)
		if all != nil {
			results = append(results, &all.Products, &all.Distributors)
		}
	case service.EntityProducts:
		var res *dto.SyncResult
		res, err = svc.SyncProducts(ctx)
		results = append(results, res)
	case service.EntityDistributors:
		var res *dto.SyncResult
		res, err = svc.SyncDistributors(ctx)
		results = append(results, res)
	default:
		log.Fatal().Str("entity", *entity).Msg("unknown entity")
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		log.Info().
			Str("entity", r.Entity).
			Str("status", r.Status).
			Int("fetched", r.TotalFetched).
			Int("created", r.Created).
			Int("updated", r.Updated).
			Int("unchanged", r.Unchanged).
			Int("skipped", r.Skipped).
			Int("errors", r.Errors).
			Msg("sync result")
	}
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		os.Exit(1)
	}
}
