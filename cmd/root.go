package cmd

import (
	"github.com/spf13/cobra"

	"vietlingo/config"
	"vietlingo/logger"
)

var rootCmd = &cobra.Command{
	Use:          "vietlingo",
	Short:        "Vietnamese learning backend",
	Long:         "VietLingo serves the learning API: accounts, experience points, lesson progress and handwriting recognition.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadConfig()
		if driver, _ := cmd.Flags().GetString("db-driver"); driver != "" {
			config.AppConfig.DBDriver = driver
		}
		_, err := logger.New(config.AppConfig.Env)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "Storage backend: postgres, mysql, sqlite or mongo (overrides DB_DRIVER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(curriculumCmd)
	rootCmd.AddCommand(sweepStreaksCmd)
}
