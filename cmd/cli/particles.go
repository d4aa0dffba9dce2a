package main

import (
	"github.com/akeren/clawsec-waitlist/pkg/particles"
	"github.com/spf13/cobra"
)

func newParticlesCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "particles",
		Short: "Print the background particle field as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := particles.Generate(count)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), field)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", particles.DefaultCount, "number of particles (0-200)")

	return cmd
}
