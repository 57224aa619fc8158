// Package main is the entry point for the litsearch CLI, a command-line
// front end over the configured literature retrieval strategy.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/literature-retrieval-service/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the configuration loaded before any subcommand runs.
var cfg *config.Config

// rootCmd is the base command for the litsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "litsearch",
	Short: "Search biomedical and preprint literature from the command line",
	Long: `litsearch runs the same retrieval pipeline as the literature retrieval
service. The configured strategy decides where the query goes: direct searches
PubMed and fetches the records in one batch, remote forwards it to a delegate
backend, and arxiv queries the arXiv Atom API. The normalized, deduplicated
results are printed.

Configuration is read from config.yaml (or --config) and LITSEARCH_*
environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := loadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/literature-retrieval-service/config.yaml)")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
