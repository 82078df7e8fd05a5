package cli

import (
	"github.com/spf13/cobra"

	"github.com/nob-ogura/document-locator/internal/adapters/driven/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateDryRun bool

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configCache.Get()
		if err != nil {
			return err
		}

		result, err := postgres.NewMigrator(cfg).Up(cmd.Context(), migrateDryRun)
		if err != nil {
			return err
		}

		if migrateDryRun {
			if len(result.Pending) == 0 {
				cmd.Println("Database already up-to-date.")
				return nil
			}
			cmd.Println("Pending migrations (dry-run):")
			for _, version := range result.Pending {
				cmd.Printf("  - %s\n", version)
			}
			return nil
		}

		if len(result.Applied) == 0 {
			cmd.Println("Database already up-to-date.")
			return nil
		}
		cmd.Printf("Applied %d migration(s).\n", len(result.Applied))
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configCache.Get()
		if err != nil {
			return err
		}

		statuses, err := postgres.NewMigrator(cfg).Status(cmd.Context())
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			cmd.Println("No migrations found.")
			return nil
		}
		for _, status := range statuses {
			marker := "pending"
			if status.Applied {
				marker = "applied"
			}
			cmd.Printf("  %-7s  %s\n", marker, status.Version)
		}
		return nil
	},
}

func init() {
	migrateUpCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false,
		"list pending migrations without applying them")
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
