package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/ui"
)

var clientCmd = &cobra.Command{
	Use:     "client",
	GroupID: "books",
	Short:   "Manage clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client",
	Long: `Add a client to the books.

Client names are matched exactly, including case. A second client that
differs only in case is allowed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.AddClient(cmd.Context(), args[0], color); err != nil {
			if errors.Is(err, ledger.ErrDuplicateClient) {
				ui.Errorf("client %q already exists", args[0])
				os.Exit(1)
			}
			return err
		}
		fmt.Printf("Added client %s\n", args[0])
		return nil
	},
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		clients, err := led.ListClients()
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Println("No clients yet. Add one with 'tally client add <name>'.")
			return nil
		}
		rows := make([][]string, 0, len(clients))
		for _, c := range clients {
			rows = append(rows, []string{c.Name, c.Color})
		}
		fmt.Print(ui.Table([]string{"NAME", "COLOR"}, rows))
		return nil
	},
}

var clientArchiveCmd = &cobra.Command{
	Use:   "archive <name>",
	Short: "Move a client and all its records to the archive tables",
	Long: `Archive a client.

The client row and every hour entry, category, and todo belonging to it
move to the archive tables. Reports no longer include archived records.
Use 'tally client restore' to bring a client back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.ArchiveClient(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, ledger.ErrUnknownClient) {
				ui.Errorf("no client named %q", args[0])
				os.Exit(1)
			}
			return err
		}
		fmt.Printf("Archived %s\n", args[0])
		return nil
	},
}

var clientRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Move an archived client and its records back to the live tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.RestoreClient(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, ledger.ErrUnknownClient) {
				ui.Errorf("no archived client named %q", args[0])
				os.Exit(1)
			}
			return err
		}
		fmt.Printf("Restored %s\n", args[0])
		return nil
	},
}

func init() {
	clientAddCmd.Flags().String("color", "", "display color for dashboards")

	clientCmd.AddCommand(clientAddCmd)
	clientCmd.AddCommand(clientListCmd)
	clientCmd.AddCommand(clientArchiveCmd)
	clientCmd.AddCommand(clientRestoreCmd)
	rootCmd.AddCommand(clientCmd)
}
