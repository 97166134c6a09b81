package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scooper-dashboard/config"
	"scooper-dashboard/services"
	"scooper-dashboard/storage"
	"scooper-dashboard/utils"
)

var (
	cfg    *config.Config
	rules  *config.Rules
	logger *utils.Logger

	flagRules   string
	flagBackend string
)

var rootCmd = &cobra.Command{
	Use:   "scooper",
	Short: "Printer certification and placement dashboard",
	Long: `Reads registry certification exports, manufacturer placement tracking and
brand-count snapshots, reconciles them into one timeline and serves the
resulting views as a terminal report, CSV exports or a JSON API.`,
	Example: `  # Print the dashboard once
  $ scooper report

  # Write every view as CSV
  $ scooper export -o ./output

  # Load a directory of snapshots into SQLite, then serve from it
  $ scooper seed ./snapshots --store sqlite
  $ scooper serve --store sqlite`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if flagRules != "" {
			cfg.RulesPath = flagRules
		}
		if flagBackend != "" {
			cfg.StoreBackend = flagBackend
		}
		logger = utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

		var err error
		rules, err = config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "rules YAML file (default $RULES_PATH or rules.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "store", "", "snapshot store: dir, sqlite or postgres (default $STORE_BACKEND)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// snapshotStore is a backend that can be read, seeded and closed.
type snapshotStore interface {
	storage.FeedStore
	storage.SnapshotWriter
}

func openStore(ctx context.Context) (snapshotStore, func(), error) {
	switch cfg.StoreBackend {
	case "dir":
		logger.Info("[store] reading snapshots from %s", cfg.StoreDir)
		return storage.NewDirStore(cfg.StoreDir), func() {}, nil
	case "sqlite":
		s, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[store] reading snapshots from sqlite %s", cfg.SQLitePath)
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			logger.Error("Make sure PostgreSQL is reachable at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
			return nil, nil, err
		}
		logger.Info("[store] reading snapshots from postgres %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q (want dir, sqlite or postgres)", cfg.StoreBackend)
}

// newDashboard wires store, cache, loader and pipeline.
func newDashboard(ctx context.Context) (*services.Dashboard, func(), error) {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Config — backend: %s | cache ttl: %v | concurrency: %d | retries: %d",
		cfg.StoreBackend, cfg.CacheTTL, cfg.FetchConcurrency, cfg.FetchRetries)

	cached := storage.NewCachedStore(store, cfg.CacheSize, cfg.CacheTTL)
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.FetchRetries,
		BaseDelay:   cfg.FetchRetryDelay,
		Logger:      logger,
	}
	loader := services.NewLoader(cached, cfg.FetchConcurrency, retry, logger)
	return services.NewDashboard(rules, loader, logger), closeStore, nil
}
