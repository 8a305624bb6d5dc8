package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/repo"
	"github.com/hamed0406/arenawatch/internal/tracker"
)

type PollerConfig struct {
	Platform     domain.Platform
	MinInterval  time.Duration // cooldown when the fetcher gives no pacing hint
	ExtraDelay   time.Duration // added to every cooldown
	FetchTimeout time.Duration
	Concurrency  int
	FlushTimeout time.Duration // bound for the end-of-cycle flush
}

type evaluator interface {
	Evaluate(ctx context.Context, sub domain.Subscription, obs domain.Observation) []tracker.Change
}

type flusher interface {
	Flush(ctx context.Context, p domain.Platform) error
}

// CycleStats summarizes one polling cycle.
type CycleStats struct {
	ID            string
	Subscriptions int
	Fetched       int
	Failed        int
	Changes       int
	Sent          int
	Cooldown      time.Duration
}

// Poller drives one platform: fetch every subscription, evaluate, flush
// history, cool down, repeat until the context is cancelled.
type Poller struct {
	Logger    *zap.Logger
	Subs      repo.SubscriptionStore
	Fetcher   tracker.Fetcher
	Evaluator evaluator
	History   flusher
	cfg       PollerConfig
}

func NewPoller(
	logger *zap.Logger,
	subs repo.SubscriptionStore,
	fetcher tracker.Fetcher,
	ev evaluator,
	history flusher,
	cfg PollerConfig,
) *Poller {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		Logger:    logger.With(zap.String("platform", cfg.Platform.String())),
		Subs:      subs,
		Fetcher:   fetcher,
		Evaluator: ev,
		History:   history,
		cfg:       cfg,
	}
}

// Run loops until ctx is cancelled. A cycle that is already fetching when
// that happens still evaluates and flushes what it fetched.
func (p *Poller) Run(ctx context.Context) {
	p.Logger.Info("poller_started",
		zap.Duration("min_interval", p.cfg.MinInterval),
		zap.Int("concurrency", p.cfg.Concurrency),
	)
	for {
		stats := p.RunOnce(ctx)

		t := time.NewTimer(stats.Cooldown)
		select {
		case <-ctx.Done():
			t.Stop()
			p.Logger.Info("poller_stopped")
			return
		case <-t.C:
		}
	}
}

// RunOnce performs a single cycle and returns its stats, including the
// cooldown to observe before the next one.
func (p *Poller) RunOnce(ctx context.Context) CycleStats {
	stats := CycleStats{ID: uuid.NewString()}
	log := p.Logger.With(zap.String("cycle_id", stats.ID))

	subs, err := p.Subs.ActiveSubscriptions(ctx, p.cfg.Platform)
	if err != nil {
		log.Warn("poller_list_error", zap.Error(err))
	} else {
		stats.Subscriptions = len(subs)
		p.pollAll(ctx, log, subs, &stats)
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.FlushTimeout)
	if err := p.History.Flush(flushCtx, p.cfg.Platform); err != nil {
		log.Error("poller_flush_error", zap.Error(err))
	}
	cancel()

	stats.Cooldown = p.cooldown()
	log.Info("poller_cycle_done",
		zap.Int("subscriptions", stats.Subscriptions),
		zap.Int("fetched", stats.Fetched),
		zap.Int("failed", stats.Failed),
		zap.Int("changes", stats.Changes),
		zap.Int("sent", stats.Sent),
		zap.Duration("cooldown", stats.Cooldown),
	)
	return stats
}

func (p *Poller) pollAll(ctx context.Context, log *zap.Logger, subs []domain.Subscription, stats *CycleStats) {
	var fetched, failed, changes, sent atomic.Int64

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					log.Error("poller_panic",
						zap.Int64("account_id", sub.AccountID),
						zap.Int64("subscriber_id", sub.SubscriberID),
						zap.Any("panic", r),
					)
				}
			}()

			obs, err := p.fetch(ctx, sub)
			if err != nil {
				failed.Add(1)
				level := zap.WarnLevel
				if errors.Is(err, context.Canceled) {
					level = zap.DebugLevel
				}
				log.Log(level, "poller_fetch_error",
					zap.Int64("account_id", sub.AccountID),
					zap.Int64("subscriber_id", sub.SubscriberID),
					zap.Error(err),
				)
				return
			}
			fetched.Add(1)

			// what was fetched is evaluated even if shutdown started meanwhile
			for _, ch := range p.Evaluator.Evaluate(context.WithoutCancel(ctx), sub, obs) {
				changes.Add(1)
				if ch.Sent {
					sent.Add(1)
				}
			}
		}()
	}

	wg.Wait()
	stats.Fetched = int(fetched.Load())
	stats.Failed = int(failed.Load())
	stats.Changes = int(changes.Load())
	stats.Sent = int(sent.Load())
}

func (p *Poller) fetch(ctx context.Context, sub domain.Subscription) (domain.Observation, error) {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	st, err := p.Fetcher.Fetch(cctx, sub)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Observation{}, fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return domain.Observation{}, err
	}
	if st == nil {
		return domain.Observation{}, fmt.Errorf("account %d: nil state: %w", sub.AccountID, domain.ErrParse)
	}
	return st.Observation(), nil
}

func (p *Poller) cooldown() time.Duration {
	d := p.cfg.MinInterval
	if pacer, ok := p.Fetcher.(tracker.Pacer); ok {
		if hint := pacer.BatchDelay(); hint > 0 {
			d = hint
		}
	}
	return d + p.cfg.ExtraDelay
}
