package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath       string
	statePath    string
	registryPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "splitkit",
	Short: "splitkit - a self-hosted experiment assignment and analysis toolkit",
	Long: `splitkit assigns users to experiment variants (sticky, weighted,
audience-targeted), records conversion events, and aggregates results.

Running without a subcommand starts the collector (same as 'splitkit serve').`,
	RunE: runServe, // Default action is to start the collector
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("SK_DB_PATH", "./splitkit.db"), "collector database path")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", getEnvOrDefault("SK_STATE_PATH", "./splitkit-state.json"), "client state file path")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", getEnvOrDefault("SK_REGISTRY", "./experiments.json"), "experiment registry JSON path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
