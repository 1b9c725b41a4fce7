package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/storage"
)

// Show prints stored recommendations, most recently updated first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, _, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show recommendations")
	}
	defer closeStores()

	recs, err := store.ListRecommendations(ctx, a.Config.ResolveSchema(opts.Schema), opts.Limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stdout, "no recommendations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Resource\tType\tCloud\tSaving%\tMonthly$\tUpdated (UTC)\tRecommendation")

	for _, rec := range recs {
		saving := "-"
		text := "-"
		if summary, ok := decodeSummary(rec); ok {
			saving = fmt.Sprintf("%.1f", summary.Recommendations.Effective.SavingPct)
			text = sanitizeInline(summary.Recommendations.Effective.Text)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ResourceID,
			rec.ResourceType,
			rec.Cloud,
			saving,
			rec.ForecastMonthly.StringFixed(2),
			rec.UpdatedAt.UTC().Format(time.RFC3339),
			text,
		)
	}

	writer.Flush()
	return nil
}

// decodeSummary recovers the typed view of a stored document. A malformed
// document renders as placeholders instead of failing the listing.
func decodeSummary(rec storage.StoredRecommendation) (analysis.Summary, bool) {
	var doc analysis.Recommendation
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return analysis.Summary{}, false
	}
	summary, err := doc.Summarize()
	if err != nil {
		return analysis.Summary{}, false
	}
	return summary, true
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	if len(cleaned) > 80 {
		cleaned = cleaned[:77] + "..."
	}
	return cleaned
}
