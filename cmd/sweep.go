package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"vietlingo/config"
	"vietlingo/utils"
)

var sweepStreaksCmd = &cobra.Command{
	Use:   "sweep-streaks",
	Short: "Reset every streak that was not extended yesterday or today, once",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := buildServices(cmd.Context(), config.AppConfig)
		if err != nil {
			return err
		}
		defer cleanup(context.Background())

		utils.RunStreakSweep(svc.Ledger.SweepBrokenStreaks)
		return nil
	},
}
