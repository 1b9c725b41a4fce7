package cli

import (
	"github.com/spf13/cobra"

	"cloud-cost-advisor/internal/app"
)

var (
	exportSchema  string
	exportLimit   int
	exportCSVPath string
	exportPNGPath string
	exportPDFPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored recommendations as CSV, PNG chart, and/or PDF report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Schema:  exportSchema,
			Limit:   exportLimit,
			CSVPath: exportCSVPath,
			PNGPath: exportPNGPath,
			PDFPath: exportPDFPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSchema, "schema", "", "Warehouse schema (defaults to config)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Maximum rows to export (defaults to config)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the savings chart")
	exportCmd.Flags().StringVar(&exportPDFPath, "pdf", "", "Path to write the PDF report")
}
