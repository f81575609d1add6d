package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/schema"
	"github.com/tallyhq/tally/internal/ui"
)

var editCmd = &cobra.Command{
	Use:     "edit <table> <client>",
	GroupID: "books",
	Short:   "Edit one client's rows of a table in $EDITOR",
	Long: `Open one client's slice of a table in $EDITOR as CSV.

Only the selected client's rows are shown and replaced on save; rows
belonging to other clients, including ones written by another session
while the editor was open, are kept as they are. Deleting a line
deletes the row. Rows edited to carry a different client are rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := schema.Lookup(schema.NormalizeName(args[0]))
		if err != nil {
			return err
		}
		if schema.ClientColumn(table) < 0 {
			return fmt.Errorf("table %s has no client column", table.Name)
		}
		client := args[1]

		led, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}

		be, err := led.BeginBulkEdit(table, "Client", client)
		if err != nil {
			return err
		}

		path := filepath.Join(os.TempDir(), fmt.Sprintf("tally-edit-%s.csv", table.Name))
		if err := writeEditFile(path, table, be.Rows()); err != nil {
			return err
		}
		defer os.Remove(path)

		if err := runEditor(path); err != nil {
			return err
		}

		edited, err := readEditFile(path)
		if err != nil {
			return err
		}

		diff, err := led.CommitBulkEdit(cmd.Context(), be, edited)
		if err != nil {
			return err
		}
		fmt.Printf("%s: +%d -%d rows (%d kept)\n", table.Name, diff.Added, diff.Removed, diff.Kept)
		return nil
	},
}

func writeEditFile(path string, table schema.Table, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating edit file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func readEditFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading edit file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing edited CSV: %w", err)
	}
	if len(records) > 0 {
		records = records[1:] // header
	}
	return records, nil
}

func runEditor(path string) error {
	if !ui.Interactive() {
		return fmt.Errorf("edit requires a terminal")
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", editor, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(editCmd)
}
