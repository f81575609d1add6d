package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/config"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync table files with the hosted mirror",
}

var syncFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Replace local table files with the mirror's copies",
	Long: `Fetch every table from the hosted mirror.

Tables missing on the mirror leave the local file alone. When the
mirror is unreachable the local files stand and a warning is logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RemoteConfigured() {
			return fmt.Errorf("no remote configured; set remote.owner and remote.repo in %s", config.DefaultPath())
		}

		st, err := openStore()
		if err != nil {
			return err
		}

		start := time.Now()
		if err := openSyncer(st).FetchAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Fetched all tables in %v\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push every local table to the mirror",
	Long: `Push every table file to the hosted mirror.

Each push targets the revision last seen for that table; if someone
else pushed in between, the conflict is reported and the local file is
left untouched. Run 'tally sync fetch' and retry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RemoteConfigured() {
			return fmt.Errorf("no remote configured; set remote.owner and remote.repo in %s", config.DefaultPath())
		}

		message, _ := cmd.Flags().GetString("message")

		st, err := openStore()
		if err != nil {
			return err
		}

		start := time.Now()
		if err := openSyncer(st).PushAll(cmd.Context(), message); err != nil {
			return err
		}
		fmt.Printf("Pushed all tables in %v\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	syncPushCmd.Flags().StringP("message", "m", "tally push", "commit message for the mirror")

	syncCmd.AddCommand(syncFetchCmd)
	syncCmd.AddCommand(syncPushCmd)
	rootCmd.AddCommand(syncCmd)
}
