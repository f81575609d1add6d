package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/schema"
)

var dayoffCmd = &cobra.Command{
	Use:     "dayoff",
	GroupID: "books",
	Short:   "Record days off",
}

var dayoffAddCmd = &cobra.Command{
	Use:   "add [reason]",
	Short: "Record a day off",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		date, err := resolveDate(dateFlag)
		if err != nil {
			return err
		}

		d := schema.DayOff{Date: date}
		if len(args) == 1 {
			d.Reason = args[0]
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.AddDayOff(cmd.Context(), d); err != nil {
			return err
		}
		fmt.Printf("Recorded day off on %s\n", d.Date)
		return nil
	},
}

var meetingCmd = &cobra.Command{
	Use:     "meeting",
	GroupID: "books",
	Short:   "Record meetings",
}

var meetingAddCmd = &cobra.Command{
	Use:   "add <client> <title> [notes]",
	Short: "Record a meeting with a client",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		date, err := resolveDate(dateFlag)
		if err != nil {
			return err
		}

		m := schema.Meeting{Date: date, Client: args[0], Meeting: args[1]}
		if len(args) == 3 {
			m.Notes = args[2]
		}

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		if err := led.AddMeeting(cmd.Context(), m); err != nil {
			return err
		}
		fmt.Printf("Recorded meeting with %s on %s\n", m.Client, m.Date)
		return nil
	},
}

func init() {
	dayoffAddCmd.Flags().String("date", "", "date of the day off (default today)")
	meetingAddCmd.Flags().String("date", "", "date of the meeting (default today)")

	dayoffCmd.AddCommand(dayoffAddCmd)
	meetingCmd.AddCommand(meetingAddCmd)
	rootCmd.AddCommand(dayoffCmd)
	rootCmd.AddCommand(meetingCmd)
}
