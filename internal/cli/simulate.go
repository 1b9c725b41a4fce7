package cli

import (
	"github.com/spf13/cobra"

	"cloud-cost-advisor/internal/app"
)

var (
	simulateCloud string
	simulateType  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the pipeline offline against fabricated rows and a canned response",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			Cloud:        simulateCloud,
			ResourceType: simulateType,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateCloud, "cloud", "azure", "Cloud provider to simulate")
	simulateCmd.Flags().StringVar(&simulateType, "type", "vm", "Resource type to simulate")
}
