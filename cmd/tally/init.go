package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/schema"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and table files",
	Long: `Initialize tally.

Writes a starter config file (unless one exists) and creates the data
directory with an empty, headered file for every table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultPath()
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Config already exists at %s\n", path)
		} else {
			if err := config.WriteStarter(path); err != nil {
				return err
			}
			fmt.Printf("Wrote config to %s\n", path)
		}

		// Reload so data_dir reflects the file just written.
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		for _, t := range schema.All {
			if _, err := st.Read(t); err != nil {
				return fmt.Errorf("initializing %s: %w", t.Filename(), err)
			}
		}
		fmt.Printf("Data directory ready at %s\n", cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
