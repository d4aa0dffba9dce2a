package main

import (
	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/domain/waitlist"
	"github.com/spf13/cobra"
)

func newCountCommand(newLogger loggerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the waitlist count as the landing page shows it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)

			appConfig, err := config.LoadCoreConfiguration(logger)
			if err != nil {
				return err
			}
			defer appConfig.Cleanup()

			service := waitlist.NewWaitlistServiceFactory(appConfig).CreateService(nil)
			return writeJSON(cmd.OutOrStdout(), service.Count(cmd.Context()))
		},
	}
}
