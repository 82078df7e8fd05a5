package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nob-ogura/document-locator/internal/adapters/driven/config"
	"github.com/nob-ogura/document-locator/internal/adapters/driven/storage/postgres"
	"github.com/nob-ogura/document-locator/internal/core/domain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and database connectivity",
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the merged configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !config.Doctor(configOptions(), cmd.OutOrStdout(), cmd.ErrOrStderr()) {
			return errors.New("configuration check failed")
		}
		return nil
	},
}

var doctorDBMode string

var doctorDBCmd = &cobra.Command{
	Use:   "db",
	Short: "Verify the database connection for a credential mode",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode, err := domain.ParseConnectionMode(doctorDBMode)
		if err != nil {
			return err
		}
		cfg, err := configCache.Get()
		if err != nil {
			return err
		}

		manager := postgres.NewManager(cfg)
		defer manager.Reset()

		if !postgres.Doctor(cmd.Context(), manager, mode, cmd.OutOrStdout(), cmd.ErrOrStderr()) {
			return fmt.Errorf("database check failed (%s mode)", mode)
		}
		return nil
	},
}

func init() {
	doctorDBCmd.Flags().StringVar(&doctorDBMode, "mode",
		domain.ModeService.String(), "credential mode to check: service or user")
	doctorCmd.AddCommand(doctorConfigCmd, doctorDBCmd)
	rootCmd.AddCommand(doctorCmd)
}
