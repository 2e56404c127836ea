package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show a stored record",
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

func init() {
	showCmd.Flags().Bool("json", false, "Output as JSON")
}

func runShow(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid record id %q\n", args[0])
		os.Exit(1)
	}

	cfg := loadConfig()
	jsonOut, _ := cmd.Flags().GetBool("json")

	database, err := db.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	stored, rec, err := database.GetRecord(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading record: %v\n", err)
		os.Exit(1)
	}
	if stored == nil {
		fmt.Fprintf(os.Stderr, "Not found: %d\n", id)
		os.Exit(1)
	}

	if jsonOut {
		if err := report.PrintJSON(cmd.OutOrStdout(), rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	report.PrintStored(cmd.OutOrStdout(), stored, rec)
}
