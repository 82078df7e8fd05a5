package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nob-ogura/document-locator/internal/adapters/driven/config"
	"github.com/nob-ogura/document-locator/internal/logger"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	logFmt   string
	logDest  string
)

// configCache memoises the resolved configuration for the life of one
// command invocation; commands that never touch configuration never load it.
var configCache = config.NewCache(loadConfig)

func loadConfig() (*config.AppConfig, error) {
	return config.Load(config.Options{EnvFile: envFile, ConfigFile: cfgFile})
}

func configOptions() config.Options {
	return config.Options{EnvFile: envFile, ConfigFile: cfgFile}
}

var rootCmd = &cobra.Command{
	Use:   "document-locator",
	Short: "Index and search Google Drive documents",
	Long: `document-locator crawls Google Drive folders, indexes document
summaries and embeddings into a Supabase-managed Postgres database,
and serves vector similarity searches over them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		configCache.Reset()
		_, err := logger.Configure(logLevel, logger.Format(logFmt), logger.Destination(logDest))
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to a TOML configuration file")
	flags.StringVar(&envFile, "env-file", "", "path to a .env file holding secrets")
	flags.StringVar(&logLevel, "log-level", "INFO", "logging verbosity (DEBUG, INFO, WARNING, ERROR)")
	flags.StringVar(&logFmt, "log-format", "text", "log encoding: text or json")
	flags.StringVar(&logDest, "log-destination", "auto", "log routing: stdout, stderr, or auto")
}

// Execute runs the root command and maps failures to process exit codes:
// 2 for configuration errors, 1 for everything else.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return 2
		}
		return 1
	}
	return 0
}
