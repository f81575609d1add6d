package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/mirror"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/ui"
)

var (
	cfgPath string
	cfg     *config.Config
	logger  *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Track billable hours, goals, and todos per client",
	Long: `tally keeps your hours, goals, categories, and todos in plain
table files and mirrors every change to a hosted repository, so the
same books can be worked on from any machine.

Table files live under the data directory (default ~/.tally/data) and
stay readable with any spreadsheet tool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		logger = config.NewLogger(cfg.Log, "[tally] ")
		ui.Init()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.tally.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "books", Title: "Bookkeeping Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
	)
}

// openStore builds the table store over the configured data directory.
func openStore() (store.Store, error) {
	return store.NewDiskStore(cfg.DataDir)
}

// openSyncer builds the mirror syncer, or a no-op one when no remote
// is configured.
func openSyncer(st store.Store) mirror.Syncer {
	if !cfg.RemoteConfigured() {
		return mirror.NewNop()
	}
	client := mirror.NewClient(mirror.ClientConfig{
		APIBase: cfg.Remote.APIBase,
		Owner:   cfg.Remote.Owner,
		Repo:    cfg.Remote.Repo,
		Branch:  cfg.Remote.Branch,
		Token:   cfg.Remote.Token,
	})
	return mirror.NewSyncer(client, st, mirror.SyncerConfig{
		PathPrefix: cfg.Remote.PathPrefix,
		Logger:     logger,
	})
}

// openLedger wires store, syncer, and ledger for a command invocation.
// With a remote configured, every table is fetched up front: the
// command then reads the mirror's current content, and its push
// carries the revision this session actually saw, so a concurrent edit
// from another machine surfaces as a conflict instead of being
// overwritten.
func openLedger(ctx context.Context) (*ledger.Ledger, error) {
	st, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("opening data directory %s: %w", cfg.DataDir, err)
	}
	ms := openSyncer(st)
	if cfg.RemoteConfigured() {
		if err := ms.FetchAll(ctx); err != nil {
			return nil, fmt.Errorf("fetching tables: %w", err)
		}
	}
	return ledger.New(st, ms, ledger.WithLogger(logger)), nil
}

// openCache opens the report cache and refreshes it from the table
// files so queries see current data.
func openCache(cmd *cobra.Command) (*cache.DB, error) {
	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("opening report cache %s: %w", cfg.CachePath, err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing report cache: %w", err)
	}
	st, err := openStore()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := cache.NewSyncer(db, st, logger).Refresh(cmd.Context()); err != nil {
		db.Close()
		return nil, fmt.Errorf("refreshing report cache: %w", err)
	}
	return db, nil
}
