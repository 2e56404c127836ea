package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/autosupport/internal/config"
	"github.com/sigreer/autosupport/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "autosupport",
	Short: "Extract structured records from Data Domain autosupport reports",
	Long: `autosupport reads Data Domain autosupport reports from support bundles
(.tar.gz, .tgz), emailed reports (.eml) or plain text files and extracts
system identity, service status, storage usage, compression statistics,
mtree configuration and cloud tier settings.

Parsed records can be printed, emitted as JSON, stored in a local sqlite
history and exported as Prometheus textfile metrics.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig reads the configuration and installs the default logger
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/autosupport/config.yaml)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
