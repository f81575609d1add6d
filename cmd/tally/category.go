package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/ui"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	GroupID: "books",
	Short:   "Manage per-client work categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <client> <category>",
	Short: "Add a category for a client",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.AddCategory(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Added category %s for %s\n", args[1], args[0])
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list [client]",
	Short: "List categories, optionally for one client",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ""
		if len(args) == 1 {
			client = args[0]
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		cats, err := led.ListCategories(client)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Println("No categories yet.")
			return nil
		}
		rows := make([][]string, 0, len(cats))
		for _, c := range cats {
			rows = append(rows, []string{c.Client, c.Category})
		}
		fmt.Print(ui.Table([]string{"CLIENT", "CATEGORY"}, rows))
		return nil
	},
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	rootCmd.AddCommand(categoryCmd)
}
