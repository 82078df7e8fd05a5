package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the indexed Google Drive corpus",
	Long: `Runs a vector similarity search over the indexed documents.
Validates configuration before starting.`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, _ []string) error {
	cfg, err := configCache.Get()
	if err != nil {
		slog.Error("configuration invalid", "cli", "search", "error", err)
		return err
	}

	slog.Info("Search CLI ready",
		"cli", "search",
		"schema", cfg.Database.Schema)

	// The query workflow plugs in here once the embedding provider lands.
	return nil
}
