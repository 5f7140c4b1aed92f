// Package main implements the intaked CLI: the intake HTTP server plus
// one-shot commands for processing documents and filing corrections.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "intaked",
	Short: "Document intake decision engine",
	Long: `intaked triages inbound clinical documents: it extracts patient,
provider, category and summary fields concurrently, applies routing
rules, and re-applies remembered operator corrections.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(correctCmd)
}
