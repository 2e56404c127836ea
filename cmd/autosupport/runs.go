package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		limit, _ := cmd.Flags().GetInt("limit")

		database, err := db.New(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		runs, err := database.GetRecentRuns(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
			os.Exit(1)
		}
		total, degraded, err := database.RecordCount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting records: %v\n", err)
			os.Exit(1)
		}
		report.PrintRuns(cmd.OutOrStdout(), runs, total, degraded)
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 10, "Maximum runs to list")
}
