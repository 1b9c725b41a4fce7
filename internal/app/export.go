package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	chart "github.com/wcharczuk/go-chart/v2"

	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/storage"
)

// exportRow is one stored recommendation with its decoded view; Decoded is
// false when the document does not match the expected schema.
type exportRow struct {
	Stored  storage.StoredRecommendation
	Summary analysis.Summary
	Decoded bool
}

// Export renders stored recommendations as CSV, PNG chart, and/or PDF
// report.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" && opts.PDFPath == "" {
		return errors.New("at least one of --csv, --png or --pdf must be provided")
	}

	limit := opts.Limit
	if limit <= 0 || limit > a.Config.Export.MaxRows {
		limit = a.Config.Export.MaxRows
	}

	store, _, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStores()

	recs, err := store.ListRecommendations(ctx, a.Config.ResolveSchema(opts.Schema), limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		a.Logger.Info().Msg("no recommendations to export")
		return nil
	}

	rows := make([]exportRow, len(recs))
	for i, rec := range recs {
		summary, ok := decodeSummary(rec)
		rows[i] = exportRow{Stored: rec, Summary: summary, Decoded: ok}
	}

	a.Logger.Info().Int("rows", len(rows)).Msg("exporting recommendations")

	if opts.CSVPath != "" {
		if err := writeRecommendationsCSV(opts.CSVPath, rows); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeSavingsPNG(opts.PNGPath, rows); err != nil {
			return err
		}
	}
	if opts.PDFPath != "" {
		if err := writeRecommendationsPDF(opts.PDFPath, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeRecommendationsCSV(path string, rows []exportRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"resource_id", "resource_type", "cloud", "run_id",
		"effective_recommendation", "saving_pct",
		"forecast_monthly", "forecast_annual",
		"contract_assessment", "updated_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		text, saving, assessment := "", "", ""
		if row.Decoded {
			text = row.Summary.Recommendations.Effective.Text
			saving = fmt.Sprintf("%.1f", row.Summary.Recommendations.Effective.SavingPct)
			assessment = row.Summary.ContractDeal.Assessment
		}
		record := []string{
			row.Stored.ResourceID,
			row.Stored.ResourceType,
			row.Stored.Cloud,
			row.Stored.RunID,
			text,
			saving,
			row.Stored.ForecastMonthly.String(),
			row.Stored.ForecastAnnual.String(),
			assessment,
			row.Stored.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeSavingsPNG charts the estimated monthly saving per resource, largest
// first. Rows without a decodable document chart as zero saving.
func writeSavingsPNG(path string, rows []exportRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	const maxBars = 20
	bars := make([]chart.Value, 0, maxBars)
	for _, row := range rows {
		if len(bars) == maxBars {
			break
		}
		saving := 0.0
		if row.Decoded {
			saving = row.Stored.ForecastMonthly.InexactFloat64() * row.Summary.Recommendations.Effective.SavingPct / 100
		}
		bars = append(bars, chart.Value{
			Label: shortLabel(row.Stored.ResourceID),
			Value: saving,
		})
	}

	graph := chart.BarChart{
		Title:    "Estimated monthly saving (USD)",
		Width:    1280,
		Height:   720,
		BarWidth: 40,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func writeRecommendationsPDF(path string, rows []exportRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Cloud cost optimization report", false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Cloud cost optimization report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d resources", time.Now().UTC().Format("2006-01-02 15:04 UTC"), len(rows)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, row := range rows {
		if pdf.GetY() > 240 {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s (%s/%s)", row.Stored.ResourceID, row.Stored.Cloud, row.Stored.ResourceType), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Forecast: %s USD/month, %s USD/year",
			row.Stored.ForecastMonthly.StringFixed(2), row.Stored.ForecastAnnual.StringFixed(2)), "", 1, "L", false, 0, "")

		if !row.Decoded {
			pdf.CellFormat(0, 6, "Stored document does not match the expected schema.", "", 1, "L", false, 0, "")
			pdf.Ln(4)
			continue
		}

		effective := row.Summary.Recommendations.Effective
		pdf.MultiCell(0, 5, fmt.Sprintf("Recommendation (%.1f%% saving): %s", effective.SavingPct, effective.Text), "", "L", false)
		for _, extra := range row.Summary.Recommendations.Additional {
			pdf.MultiCell(0, 5, fmt.Sprintf("- %s (%.1f%%)", extra.Text, extra.SavingPct), "", "L", false)
		}
		if deal := row.Summary.ContractDeal; deal.Assessment != "" {
			pdf.MultiCell(0, 5, fmt.Sprintf("Contract: %s. %s", deal.Assessment, deal.Reason), "", "L", false)
		}
		pdf.Ln(4)
	}

	return pdf.OutputFileAndClose(path)
}

func shortLabel(id string) string {
	if len(id) <= 18 {
		return id
	}
	return "..." + id[len(id)-15:]
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
