package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored records",
	Long: `List records saved by 'parse --store', newest first.

Examples:
  autosupport history
  autosupport history --serial APM00123456789
  autosupport history --host ddr01.example.com --limit 5 --json`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().String("serial", "", "Only records with this system serial number")
	historyCmd.Flags().String("host", "", "Only records with this hostname")
	historyCmd.Flags().String("run", "", "Only records from this run")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum records to list")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	jsonOut, _ := cmd.Flags().GetBool("json")

	filter := db.RecordFilter{}
	filter.Serial, _ = cmd.Flags().GetString("serial")
	filter.Hostname, _ = cmd.Flags().GetString("host")
	filter.RunID, _ = cmd.Flags().GetString("run")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	database, err := db.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	records, err := database.ListRecords(filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing records: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		if err := report.PrintJSON(cmd.OutOrStdout(), records); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	report.PrintHistory(cmd.OutOrStdout(), records, time.Now())
}
