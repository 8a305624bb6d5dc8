package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/config"
	"github.com/hamed0406/arenawatch/internal/repo/postgres"
)

func preflightCmd() *cobra.Command {
	var connect bool
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check the environment before running watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if err := preflight(cfg, cmd.OutOrStdout()); err != nil {
				return err
			}
			if connect && cfg.DatabaseURL != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				st, err := postgres.New(ctx, cfg.DatabaseURL, cfg.GroupFeatureDefault, zap.NewNop())
				if err != nil {
					return fmt.Errorf("DATABASE_URL: %w", err)
				}
				_ = st.Close()
				fmt.Fprintln(cmd.OutOrStdout(), "✔ database reachable")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✔ preflight passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&connect, "connect", false, "also connect to DATABASE_URL")
	return cmd
}

// preflight prints warnings and returns an error for settings watch cannot run with.
func preflight(cfg config.Config, out io.Writer) error {
	warn := func(msg string) { fmt.Fprintln(out, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	if len(cfg.Platforms) == 0 {
		return fmt.Errorf("PLATFORMS names no known platform (use b, qu, tw)")
	}
	names := make([]string, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		names = append(names, p.String())
	}
	ok("PLATFORMS=" + strings.Join(names, ","))

	if u, err := url.Parse(cfg.GameAPIBase); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GAME_API_BASE %q is not an absolute URL", cfg.GameAPIBase)
	}
	ok("GAME_API_BASE=" + cfg.GameAPIBase)

	if cfg.BotAPIBase == "" {
		warn("BOT_API_BASE empty; notices will only be logged.")
	} else if u, err := url.Parse(cfg.BotAPIBase); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BOT_API_BASE %q is not an absolute URL", cfg.BotAPIBase)
	} else {
		ok("BOT_API_BASE=" + cfg.BotAPIBase)
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; subscriptions and history live in memory only.")
	} else {
		ok("DATABASE_URL present")
	}

	w := cfg.NoticeWindow
	if w.Hour < 0 || w.Hour > 23 || w.FromMinute < 0 || w.FromMinute >= w.ToMinute || w.ToMinute > 60 {
		return fmt.Errorf("scheduled notice window %02d:%02d-%02d:%02d is invalid", w.Hour, w.FromMinute, w.Hour, w.ToMinute)
	}
	if cfg.OnlineImmediateMin > cfg.OnlineDefaultMin {
		warn("ONLINE_IMMEDIATE_MIN_SECONDS is larger than ONLINE_DEFAULT_MIN_SECONDS.")
	}

	if cfg.Addr == "" {
		warn("API_ADDR empty; status API disabled.")
		return nil
	}
	ok("API_ADDR=" + cfg.Addr)
	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS empty; admin routes are open.")
	}
	if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
		warn("no API keys configured; read routes are open.")
	}
	return nil
}
