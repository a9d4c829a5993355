package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "adpilot",
	Short: "AdPilot - significance checks for paid social A/B tests",
	Long: `AdPilot tracks A/B tests for ad creatives and tells you when a
variant has actually beaten its control.

Counts are stored in a local SQLite file. Results are always recomputed
from the stored counts with a two-proportion z-test.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./adpilot.db", "database path (env ADPILOT_DB_PATH)")
}

// loadConfig reads an optional .env file and applies environment
// fallbacks for flags the user did not set explicitly.
func loadConfig(cmd *cobra.Command, args []string) error {
	// Missing .env is fine
	_ = godotenv.Load()

	if !cmd.Flags().Changed("db") {
		dbPath = getEnvOrDefault("ADPILOT_DB_PATH", dbPath)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
