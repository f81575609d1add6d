package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/cache"
	"github.com/tallyhq/tally/internal/daemon"
	"github.com/tallyhq/tally/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Serve a live WebSocket feed of table changes",
	Long: `Run the dashboard server alongside the sync daemon.

Connected clients receive a message for every synced table change plus
periodic aggregate stats. Connect to ws://localhost:<port>/ws; /health
reports the connection count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Dashboard.Port
		}

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

		server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Stop()

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		bridge := dashboard.NewBridge(server, led, db, &dashboard.BridgeConfig{Logger: logger})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go bridge.Run(ctx, d.Notify())

		fmt.Printf("Dashboard on http://localhost:%d (Ctrl-C to stop)\n", port)
		return d.Start(ctx)
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}
