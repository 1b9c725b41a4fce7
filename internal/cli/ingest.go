package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloud-cost-advisor/internal/app"
)

var (
	ingestFile   string
	ingestSchema string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest metric samples from CSV, skipping already-seen rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestFile == "" {
			return fmt.Errorf("--file must be provided")
		}

		opts := app.IngestOptions{
			Path:   ingestFile,
			Schema: ingestSchema,
		}

		return getApp().Ingest(cmd.Context(), opts)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Path to the samples CSV file")
	ingestCmd.Flags().StringVar(&ingestSchema, "schema", "", "Warehouse schema (defaults to config)")
}
