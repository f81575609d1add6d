package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/ui"
)

var hoursCmd = &cobra.Command{
	Use:     "hours",
	GroupID: "books",
	Short:   "Log and inspect billable hours",
}

var hoursLogCmd = &cobra.Command{
	Use:   "log <client> <hours> [description]",
	Short: "Log billable hours for a client",
	Long: `Log billable hours for a client.

The date defaults to today; --date accepts both 2006-01-02 dates and
natural phrases like "yesterday" or "last friday". Logging the same
client, date, and hours twice records two entries and reports count
both.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("hours must be a number (got %q)", args[1])
		}

		dateFlag, _ := cmd.Flags().GetString("date")
		date, err := resolveDate(dateFlag)
		if err != nil {
			return err
		}

		entry := schema.Entry{Date: date, Client: args[0], Hours: hours}
		if len(args) == 3 {
			entry.Description = args[2]
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.LogHours(cmd.Context(), entry); err != nil {
			return err
		}
		fmt.Printf("Logged %sh for %s on %s\n", args[1], entry.Client, entry.Date)
		return nil
	},
}

var hoursListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		entries, err := led.ListHours()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No hours logged yet.")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Date, e.Client, strconv.FormatFloat(e.Hours, 'f', -1, 64), e.Description})
		}
		fmt.Print(ui.Table([]string{"DATE", "CLIENT", "HOURS", "DESCRIPTION"}, rows))
		return nil
	},
}

// resolveDate turns a --date value into a canonical date string. Empty
// means today; exact dates pass through; anything else goes to the
// natural language parser.
func resolveDate(s string) (string, error) {
	if s == "" {
		return time.Now().Format(schema.DateLayout), nil
	}
	if _, err := time.Parse(schema.DateLayout, s); err == nil {
		return s, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand date %q", s)
	}
	return r.Time.Format(schema.DateLayout), nil
}

func init() {
	hoursLogCmd.Flags().String("date", "", "date of the work (default today; accepts \"yesterday\" etc.)")

	hoursCmd.AddCommand(hoursLogCmd)
	hoursCmd.AddCommand(hoursListCmd)
	rootCmd.AddCommand(hoursCmd)
}
