// Command arenawatch polls arena ranks and login times of subscribed game
// accounts and notifies subscribers through a OneBot chat bot.
//
// Usage:
//
//	arenawatch watch
//	arenawatch preflight [--connect]
//	arenawatch migrate
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/config"
	"github.com/hamed0406/arenawatch/internal/logging"
	"github.com/hamed0406/arenawatch/internal/repo/postgres"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "arenawatch",
		Short:         "Arena rank and login change notifier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(watchCmd())
	root.AddCommand(preflightCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.GroupFeatureDefault, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("migrate_done", zap.String("log_dir", cfg.LogDir))
			return nil
		},
	}
}
