package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/report"
	"github.com/tallyhq/tally/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	GroupID: "books",
	Short:   "Show hours against goals and per-client totals",
	Long: `Show a monthly hours-versus-goal report and per-client totals.

Totals come from the report cache, which is refreshed from the table
files before the report renders. Archived records are not counted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetString("year")
		if year == "" {
			year = time.Now().Format("2006")
		}

		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		rep := report.New(db)

		months, err := rep.Months(cmd.Context(), year)
		if err != nil {
			return err
		}
		fmt.Println(ui.HeaderStyle.Render(" Months " + year + " "))
		if len(months) == 0 {
			fmt.Println("No hours or goals recorded.")
		} else {
			rows := make([][]string, 0, len(months))
			for _, m := range months {
				status := ui.UnmetStyle.Render("short")
				if m.Met() {
					status = ui.MetStyle.Render("met")
				}
				rows = append(rows, []string{
					m.Month,
					strconv.FormatFloat(m.Logged, 'f', -1, 64),
					strconv.FormatFloat(m.Goal, 'f', -1, 64),
					status,
				})
			}
			fmt.Print(ui.Table([]string{"MONTH", "LOGGED", "GOAL", ""}, rows))
		}

		clients, err := rep.Clients(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(ui.HeaderStyle.Render(" Clients "))
		if len(clients) == 0 {
			fmt.Println("No client activity.")
			return nil
		}
		rows := make([][]string, 0, len(clients))
		for _, c := range clients {
			rows = append(rows, []string{
				c.Client,
				strconv.FormatFloat(c.Hours, 'f', -1, 64),
				strconv.Itoa(c.OpenTodos),
			})
		}
		fmt.Print(ui.Table([]string{"CLIENT", "HOURS", "OPEN TODOS"}, rows))
		return nil
	},
}

func init() {
	reportCmd.Flags().String("year", "", "report year (default current)")
	rootCmd.AddCommand(reportCmd)
}
