package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloud-cost-advisor/internal/app"
)

var (
	showSchema string
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Schema: showSchema,
			Limit:  showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showSchema, "schema", "", "Warehouse schema (defaults to config)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of recommendations to display")
}
