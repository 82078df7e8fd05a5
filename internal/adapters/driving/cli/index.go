package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index Google Drive documents into the locator store",
	Long: `Crawls the configured Google Drive folder and upserts document
records into the file index. Validates configuration before starting.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, _ []string) error {
	cfg, err := configCache.Get()
	if err != nil {
		slog.Error("configuration invalid", "cli", "index", "error", err)
		return err
	}

	slog.Info("Indexer CLI ready",
		"cli", "index",
		"target_folder", cfg.Google.TargetFolderID,
		"schema", cfg.Database.Schema)

	// The crawl workflow plugs in here once the Drive connector lands.
	return nil
}
