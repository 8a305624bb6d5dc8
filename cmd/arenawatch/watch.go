package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/config"
	"github.com/hamed0406/arenawatch/internal/gameapi"
	"github.com/hamed0406/arenawatch/internal/history"
	"github.com/hamed0406/arenawatch/internal/httpapi"
	apimw "github.com/hamed0406/arenawatch/internal/httpapi/middleware"
	"github.com/hamed0406/arenawatch/internal/logging"
	"github.com/hamed0406/arenawatch/internal/notify"
	"github.com/hamed0406/arenawatch/internal/policy"
	"github.com/hamed0406/arenawatch/internal/repo"
	"github.com/hamed0406/arenawatch/internal/repo/memory"
	"github.com/hamed0406/arenawatch/internal/repo/postgres"
	"github.com/hamed0406/arenawatch/internal/scheduler"
	"github.com/hamed0406/arenawatch/internal/tracker"
)

// store is what both the memory and the Postgres backends provide.
type store interface {
	repo.SubscriptionStore
	repo.SubscriptionWriter
	repo.HistoryStore
	repo.GroupGate
	repo.GroupFeatureWriter
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll every configured platform until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, config.FromEnv())
		},
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store, func() error, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("store_memory", zap.String("reason", "DATABASE_URL empty; subscriptions and history are not durable"))
		return memory.New(cfg.GroupFeatureDefault), func() error { return nil }, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, cfg.GroupFeatureDefault, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		return nil, nil, multierr.Append(err, pg.Close())
	}
	return pg, pg.Close, nil
}

func newTransport(cfg config.Config, logger *zap.Logger) notify.Transport {
	logT := notify.NewLog(logger)
	bot := notify.NewOneBot(cfg.BotAPIBase, cfg.BotAccessToken, cfg.BotSendAttempts, logger)
	if bot == nil {
		logger.Warn("notify_log_only", zap.String("reason", "BOT_API_BASE empty"))
		return logT
	}
	logT.Level.SetLevel(zap.DebugLevel)
	return notify.Multi{bot, logT}
}

func runWatch(ctx context.Context, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.Platforms) == 0 {
		return fmt.Errorf("PLATFORMS names no known platform")
	}

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	zone := time.FixedZone(fmt.Sprintf("UTC%+d", cfg.NoticeWindow.UTCOffsetHours), cfg.NoticeWindow.UTCOffsetHours*3600)
	pol := policy.New(policy.Config{
		ImmediateMin: cfg.OnlineImmediateMin,
		DefaultMin:   cfg.OnlineDefaultMin,
		Window: policy.Window{
			Hour:       cfg.NoticeWindow.Hour,
			FromMinute: cfg.NoticeWindow.FromMinute,
			ToMinute:   cfg.NoticeWindow.ToMinute,
			Zone:       zone,
		},
	})

	cache := tracker.NewCache()
	recorder := history.NewRecorder(st, logger)
	gateway := notify.NewGateway(newTransport(cfg, logger), st, logger)
	evaluator := tracker.NewEvaluator(cache, pol, gateway, recorder, logger)

	var wg sync.WaitGroup
	for _, p := range cfg.Platforms {
		// one client per platform so throttling hints stay with their platform
		client := gameapi.NewClient(cfg.GameAPIBase, cfg.FetchRPS, cfg.FetchBurst, logger)
		poller := scheduler.NewPoller(logger, st, client, evaluator, recorder, scheduler.PollerConfig{
			Platform:     p,
			MinInterval:  cfg.MinPollFor(p),
			ExtraDelay:   cfg.ExtraDelay(),
			FetchTimeout: cfg.FetchTimeout,
			Concurrency:  cfg.MaxConcurrent,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	var srv *http.Server
	if cfg.Addr != "" {
		api := httpapi.NewServer(logger, st, st, st, cache, recorder, zone)
		keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.Router(keys, cfg.AllowOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_listen_error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown_started")

	var errs error
	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = multierr.Append(errs, srv.Shutdown(sctx))
		cancel()
	}
	wg.Wait()

	fctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	errs = multierr.Append(errs, recorder.FlushAll(fctx))
	cancel()
	errs = multierr.Append(errs, closeStore())

	if errs != nil {
		logger.Error("shutdown_errors", zap.Error(errs))
		return errs
	}
	logger.Info("shutdown_done")
	return nil
}
