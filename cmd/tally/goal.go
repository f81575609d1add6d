package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/ui"
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	GroupID: "books",
	Short:   "Manage monthly hour goals",
}

var goalSetCmd = &cobra.Command{
	Use:   "set <month> <hours>",
	Short: "Set an hour goal for a month",
	Long: `Set an hour goal for a month (two digits, 01-12).

Setting a goal for the same month again adds another row; reports sum
every row for the month.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("hours must be a number (got %q)", args[1])
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.SetGoal(cmd.Context(), schema.Goal{Month: args[0], GoalHours: hours}); err != nil {
			return err
		}
		fmt.Printf("Goal for month %s: %sh\n", args[0], args[1])
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goal rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		goals, err := led.ListGoals()
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Println("No goals set yet.")
			return nil
		}
		rows := make([][]string, 0, len(goals))
		for _, g := range goals {
			rows = append(rows, []string{g.Month, strconv.FormatFloat(g.GoalHours, 'f', -1, 64)})
		}
		fmt.Print(ui.Table([]string{"MONTH", "GOAL HOURS"}, rows))
		return nil
	},
}

func init() {
	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalListCmd)
	rootCmd.AddCommand(goalCmd)
}
