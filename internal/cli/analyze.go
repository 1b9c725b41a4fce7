package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cloud-cost-advisor/internal/app"
)

var (
	analyzeCloud      string
	analyzeType       string
	analyzeSchema     string
	analyzeResourceID string
	analyzeFrom       string
	analyzeTo         string
	analyzeOut        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the recommendation pipeline once and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeCloud == "" || analyzeType == "" {
			return fmt.Errorf("--cloud and --type must be provided")
		}

		opts := app.AnalyzeOptions{
			Cloud:        analyzeCloud,
			ResourceType: analyzeType,
			Schema:       analyzeSchema,
			ResourceID:   analyzeResourceID,
			OutPath:      analyzeOut,
		}

		if analyzeFrom != "" {
			from, err := time.Parse(time.RFC3339, analyzeFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if analyzeTo != "" {
			to, err := time.Parse(time.RFC3339, analyzeTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCloud, "cloud", "", "Cloud provider (aws, azure)")
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "", "Resource type (ec2, vpc, s3, vm, storage)")
	analyzeCmd.Flags().StringVar(&analyzeSchema, "schema", "", "Warehouse schema (defaults to config)")
	analyzeCmd.Flags().StringVar(&analyzeResourceID, "resource-id", "", "Analyze a single resource")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Window start (RFC3339, defaults to the dataset lookback)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "Window end (RFC3339)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Write the JSON report to a file instead of stdout")
}
