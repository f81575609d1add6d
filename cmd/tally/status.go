package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data directory, table sizes, and remote settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%s %s\n", ui.LabelStyle.Render("Data dir:"), cfg.DataDir)

		if cfg.RemoteConfigured() {
			fmt.Printf("%s %s/%s (branch %s)\n", ui.LabelStyle.Render("Remote:"),
				cfg.Remote.Owner, cfg.Remote.Repo, cfg.Remote.Branch)
		} else {
			fmt.Printf("%s not configured (local only)\n", ui.LabelStyle.Render("Remote:"))
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		clients, err := led.ListClients()
		if err != nil {
			return err
		}
		open, err := led.ActiveTodos("")
		if err != nil {
			return err
		}
		fmt.Printf("%s %d\n", ui.LabelStyle.Render("Clients:"), len(clients))
		fmt.Printf("%s %d\n", ui.LabelStyle.Render("Open todos:"), len(open))

		fmt.Println()
		rows := make([][]string, 0, len(schema.All))
		for _, t := range schema.All {
			size := ui.MutedStyle.Render("missing")
			if info, err := os.Stat(filepath.Join(cfg.DataDir, t.Filename())); err == nil {
				size = fmt.Sprintf("%d bytes", info.Size())
			}
			rows = append(rows, []string{t.Name, size})
		}
		fmt.Print(ui.Table([]string{"TABLE", "SIZE"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
