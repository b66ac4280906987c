package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	EntityProducts     = "products"
	EntityDistributors = "distributors"

	syncLockKey      = "lock:sync"
	syncLockTTL      = 2 * time.Minute
	syncResultPrefix = "sync:last:"
	defaultSyncBatch = 100
)

// RowFetcher runs a fixed query against the external source.
type RowFetcher interface {
	Query(ctx context.Context, query string, args ...any) ([]infra.Row, error)
}

type SyncService interface {
	SyncProducts(ctx context.Context) (*dto.SyncResult, error)
	SyncDistributors(ctx context.Context) (*dto.SyncResult, error)
	SyncAll(ctx context.Context) (*dto.SyncAllResponse, error)
	Status(ctx context.Context) (*dto.SyncStatusResponse, error)
}

// SyncOptions carries the optional collaborators. A nil Redis client disables
// the distributed lock, the result cache and the DLQ; the in-process guard
// still applies.
type SyncOptions struct {
	Redis     *redis.Client
	BatchSize int
}

type syncService struct {
	source       RowFetcher
	products     repository.ProductRepository
	distributors repository.DistributorRepository
	rdb          *redis.Client
	locker       *redislock.Client
	batchSize    int

	running atomic.Bool
	mu      sync.Mutex
	last    map[string]dto.SyncResult
}

func NewSyncService(
	source RowFetcher,
	products repository.ProductRepository,
	distributors repository.DistributorRepository,
	opts SyncOptions,
) SyncService {
	s := &syncService{
		source:       source,
		products:     products,
		distributors: distributors,
		rdb:          opts.Redis,
		batchSize:    opts.BatchSize,
		last:         make(map[string]dto.SyncResult),
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultSyncBatch
	}
	if s.rdb != nil {
		s.locker = redislock.New(s.rdb)
	}
	return s
}

// ── Overlap guard ─────────────────────────────────────────────────────────────

// acquire takes the in-process flag and, when Redis is configured, the shared
// lock. The returned func releases both.
func (s *syncService) acquire(ctx context.Context) (func(), error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	if s.locker == nil {
		return func() { s.running.Store(false) }, nil
	}

	lock, err := s.locker.Obtain(ctx, syncLockKey, syncLockTTL, nil)
	if err != nil {
		s.running.Store(false)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrSyncInProgress
		}
		return nil, fmt.Errorf("sync: obtain lock: %w", err)
	}
	stop, done := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(done)
		keepLock(lock, syncLockTTL, syncLockTTL/2, stop)
	}()
	return func() {
		close(stop)
		<-done
		// The run's context may already be cancelled.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Msg("sync: failed to release lock")
		}
		s.running.Store(false)
	}, nil
}

// lockRefresher is the part of *redislock.Lock that keepLock needs.
type lockRefresher interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
}

// keepLock extends the lock to ttl every interval until stop is closed or the
// lock is lost.
func keepLock(lock lockRefresher, ttl, interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := lock.Refresh(ctx, ttl, nil)
			cancel()
			if errors.Is(err, redislock.ErrNotObtained) {
				log.Error().Msg("sync: lock lost, another instance may start an overlapping run")
				return
			}
			if err != nil {
				log.Warn().Err(err).Msg("sync: failed to refresh lock")
			}
		}
	}
}

func (s *syncService) SyncProducts(ctx context.Context) (*dto.SyncResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.syncProducts(ctx)
}

func (s *syncService) SyncDistributors(ctx context.Context) (*dto.SyncResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.syncDistributors(ctx)
}

// SyncAll runs products then distributors under one guard. A failed product
// run does not prevent the distributor run; the first fetch error is returned.
func (s *syncService) SyncAll(ctx context.Context) (*dto.SyncAllResponse, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	products, perr := s.syncProducts(ctx)
	distributors, derr := s.syncDistributors(ctx)
	resp := &dto.SyncAllResponse{Products: *products, Distributors: *distributors}
	if perr != nil {
		return resp, perr
	}
	return resp, derr
}

// ── Runs ──────────────────────────────────────────────────────────────────────

func (s *syncService) syncProducts(ctx context.Context) (*dto.SyncResult, error) {
	return s.run(ctx, EntityProducts, productSourceQuery, func(ctx context.Context, r infra.Row, res *dto.SyncResult) error {
		in := productFromRow(r)
		if in.ItemID == "" {
			res.Skipped++
			return nil
		}
		existing, err := s.products.FindByNaturalKey(ctx, in.ItemID, in.Style, in.Configuration)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.products.Create(ctx, &in); err != nil {
				return err
			}
			res.Created++
		case err != nil:
			return err
		case applyProduct(existing, in):
			if err := s.products.Update(ctx, existing); err != nil {
				return err
			}
			res.Updated++
		default:
			res.Unchanged++
		}
		return nil
	})
}

func (s *syncService) syncDistributors(ctx context.Context) (*dto.SyncResult, error) {
	return s.run(ctx, EntityDistributors, distributorSourceQuery, func(ctx context.Context, r infra.Row, res *dto.SyncResult) error {
		in := distributorFromRow(r)
		if in.CustomerAccount == "" {
			res.Skipped++
			return nil
		}
		existing, err := s.distributors.FindByAccount(ctx, in.CustomerAccount)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.distributors.Create(ctx, &in); err != nil {
				return err
			}
			res.Created++
		case err != nil:
			return err
		case applyDistributor(existing, in):
			if err := s.distributors.Update(ctx, existing); err != nil {
				return err
			}
			res.Updated++
		default:
			res.Unchanged++
		}
		return nil
	})
}

type recordFunc func(ctx context.Context, r infra.Row, res *dto.SyncResult) error

// run fetches every row, then reconciles them chunk by chunk. A record error
// is counted and dead-lettered; only a fetch failure or cancellation ends the
// run early.
func (s *syncService) run(ctx context.Context, entity, query string, record recordFunc) (*dto.SyncResult, error) {
	res := &dto.SyncResult{Entity: entity, StartedAt: time.Now().UTC()}
	logger := log.With().Str("entity", entity).Logger()
	logger.Info().Msg("sync: started")

	rows, err := s.source.Query(ctx, query)
	if err != nil {
		res.Status = dto.SyncFailed
		res.Message = err.Error()
		s.finish(ctx, res)
		logger.Error().Err(err).Msg("sync: fetch from external source failed")
		return res, fmt.Errorf("%w: %v", ErrExternalSource, err)
	}
	res.TotalFetched = len(rows)

	var runErr error
chunks:
	for start := 0; start < len(rows); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			runErr = err
			res.Message = fmt.Sprintf("cancelled after %d records", start)
			break chunks
		}
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		for i, r := range rows[start:end] {
			if err := record(ctx, r, res); err != nil {
				res.Errors++
				logger.Warn().Err(err).Int("row", start+i).Msg("sync: record failed")
				infra.SendToDLQ(ctx, s.rdb, "sync:"+entity, "record", r, err.Error(), 1)
			}
		}
		logger.Debug().Int("processed", end).Int("total", len(rows)).Msg("sync: chunk done")
	}

	res.TotalSynced = res.Created + res.Updated + res.Unchanged
	switch {
	case runErr != nil || (res.Errors > 0 && res.TotalSynced == 0):
		res.Status = dto.SyncFailed
	case res.Errors > 0:
		res.Status = dto.SyncPartial
	default:
		res.Status = dto.SyncSuccess
	}
	s.finish(ctx, res)

	logger.Info().
		Str("status", res.Status).
		Int("fetched", res.TotalFetched).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("skipped", res.Skipped).
		Int("errors", res.Errors).
		Dur("duration", res.FinishedAt.Sub(res.StartedAt)).
		Msg("sync: finished")
	return res, runErr
}

// finish stamps the result, records metrics and stores it for Status.
func (s *syncService) finish(ctx context.Context, res *dto.SyncResult) {
	res.FinishedAt = time.Now().UTC()

	infra.SyncRunsTotal.WithLabelValues(res.Entity, res.Status).Inc()
	infra.SyncDuration.WithLabelValues(res.Entity).Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	for outcome, n := range map[string]int{
		"created": res.Created, "updated": res.Updated, "unchanged": res.Unchanged,
		"skipped": res.Skipped, "error": res.Errors,
	} {
		if n > 0 {
			infra.SyncRecordsTotal.WithLabelValues(res.Entity, outcome).Add(float64(n))
		}
	}

	s.mu.Lock()
	s.last[res.Entity] = *res
	s.mu.Unlock()

	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.rdb.Set(context.WithoutCancel(ctx), syncResultPrefix+res.Entity, data, 0).Err(); err != nil {
		log.Warn().Err(err).Str("entity", res.Entity).Msg("sync: failed to cache result")
	}
}

// Status reports whether a run is in progress here or on another instance and
// the last result per entity.
func (s *syncService) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	resp := &dto.SyncStatusResponse{Running: s.running.Load()}
	resp.Products = s.lastResult(ctx, EntityProducts)
	resp.Distributors = s.lastResult(ctx, EntityDistributors)

	if !resp.Running && s.rdb != nil {
		n, err := s.rdb.Exists(ctx, syncLockKey).Result()
		if err != nil {
			return nil, err
		}
		resp.Running = n > 0
	}
	return resp, nil
}

func (s *syncService) lastResult(ctx context.Context, entity string) *dto.SyncResult {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, syncResultPrefix+entity).Bytes()
		if err == nil {
			var res dto.SyncResult
			if json.Unmarshal(data, &res) == nil {
				return &res
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("entity", entity).Msg("sync: failed to read cached result")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.last[entity]; ok {
		return &res
	}
	return nil
}
