package cmd

import (
	"github.com/spf13/cobra"

	"vietlingo/config"
	"vietlingo/database"
	"vietlingo/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables (SQL) or indexes (mongo) and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(cmd.Context(), config.AppConfig); err != nil {
			return err
		}
		logger.Log.Info("Schema is up to date.")
		return nil
	},
}
