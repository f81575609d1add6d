package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the data directory and sync changes automatically",
	Long: `Run the background sync daemon.

The daemon watches the data directory and, after each table file
change, refreshes the report cache and pushes the table to the mirror.
Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		db, err := cache.Open(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("opening report cache %s: %w", cfg.CachePath, err)
		}
		defer db.Close()
		if err := db.InitSchema(); err != nil {
			return fmt.Errorf("initializing report cache: %w", err)
		}

		d, err := daemon.New(cfg.DataDir, cache.NewSyncer(db, st, logger), openSyncer(st), &daemon.Config{
			DebounceInterval: time.Duration(cfg.Daemon.DebounceMS) * time.Millisecond,
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", cfg.DataDir)
		return d.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
