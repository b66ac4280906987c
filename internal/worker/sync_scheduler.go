package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SyncScheduler runs the reconciliation job on a cron spec in UTC.
type SyncScheduler struct {
	cron    *cron.Cron
	syncer  service.SyncService
	breaker func() string
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// SchedulerOptions configures NewSyncScheduler. BreakerState, when set, lets
// the scheduler skip a tick while the source circuit breaker is open.
type SchedulerOptions struct {
	Spec         string
	BreakerState func() string
	RunTimeout   time.Duration
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}

func NewSyncScheduler(syncer service.SyncService, opts SchedulerOptions) (*SyncScheduler, error) {
	logger := cronLogger{l: log.With().Str("component", "sync_scheduler").Logger()}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &SyncScheduler{cron: c, syncer: syncer, breaker: opts.BreakerState, timeout: opts.RunTimeout, ctx: ctx, cancel: cancel}
	if _, err := c.AddFunc(opts.Spec, s.Tick); err != nil {
		cancel()
		return nil, fmt.Errorf("sync scheduler: invalid cron spec %q: %w", opts.Spec, err)
	}
	return s, nil
}

func (s *SyncScheduler) Start() {
	s.cron.Start()
	log.Info().Time("next_run", s.Next()).Msg("sync scheduler started")
}

// Next is the next scheduled run.
func (s *SyncScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop prevents new runs, cancels a run in progress and waits for it to
// return or for ctx to expire.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		log.Info().Msg("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick runs one full reconciliation. A run already in progress elsewhere is
// not an error.
func (s *SyncScheduler) Tick() {
	if s.breaker != nil && s.breaker() == "open" {
		log.Warn().Msg("sync scheduler: source circuit breaker open, skipping run")
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	res, err := s.syncer.SyncAll(ctx)
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		log.Info().Msg("sync scheduler: run already in progress, skipping")
	case err != nil:
		log.Error().Err(err).Msg("sync scheduler: run failed")
	default:
		log.Info().
			Str("products", res.Products.Status).
			Str("distributors", res.Distributors.Status).
			Msg("sync scheduler: run complete")
	}
}
