package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigreer/autosupport/internal/asup"
	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/ingest"
	"github.com/sigreer/autosupport/internal/metrics"
	"github.com/sigreer/autosupport/internal/report"
	"github.com/sigreer/autosupport/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse <path>",
	Short: "Parse autosupport reports from a file or directory",
	Long: `Parse every autosupport report found at path.

A directory is scanned (non-recursively) for support bundles, then emailed
reports. A single file may be a bundle, an .eml message or the plain report.

Examples:
  autosupport parse ./bundles
  autosupport parse ddr01.tar.gz --json
  autosupport parse ./bundles --store --metrics-file /var/lib/node_exporter/autosupport.prom`,
	Args: cobra.ExactArgs(1),
	Run:  runParse,
}

func init() {
	parseCmd.Flags().Bool("json", false, "Output records as JSON")
	parseCmd.Flags().Bool("store", false, "Save parsed records to the history database")
	parseCmd.Flags().String("metrics-file", "", "Write Prometheus textfile metrics to this path")
	parseCmd.Flags().IntP("workers", "w", 0, "Concurrent parsers (default from config)")
	parseCmd.Flags().Bool("trim-trailing-slash", false, "Ignore a trailing '/' when joining mtree names")
}

func runParse(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	jsonOut, _ := cmd.Flags().GetBool("json")
	store, _ := cmd.Flags().GetBool("store")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Workers
	}
	link := asup.LinkOptions{TrimTrailingSlash: cfg.Link.TrimTrailingSlash}
	if cmd.Flags().Changed("trim-trailing-slash") {
		link.TrimTrailingSlash, _ = cmd.Flags().GetBool("trim-trailing-slash")
	}

	opts := ingest.Options{
		Workers: workers,
		Link:    link,
		Opener:  source.New(source.Options{TarMember: cfg.Sources.TarMember}),
		Logger:  slog.Default(),
	}

	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
		opts.Metrics = m
	}

	if store {
		database, err := db.New(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()
		opts.Store = database
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := ingest.New(opts).Run(ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", args[0], err)
		os.Exit(1)
	}

	if m != nil {
		if err := m.WriteTextfile(metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			os.Exit(1)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := report.PrintJSON(out, sum.Records()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	report.PrintRecords(out, sum.Records())
	report.PrintSummary(out, sum)
}
