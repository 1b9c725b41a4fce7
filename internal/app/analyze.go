package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/service"
)

// Analyze runs the recommendation pipeline once and writes the report as
// JSON to stdout or --out.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	store, wh, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if wh == nil {
		return errors.New("database not configured; cannot analyze")
	}
	defer closeStores()

	req := service.Request{
		Cloud:        opts.Cloud,
		ResourceType: opts.ResourceType,
		Schema:       a.Config.ResolveSchema(opts.Schema),
		ResourceID:   opts.ResourceID,
	}

	switch {
	case opts.From != nil && opts.To != nil:
		if !opts.From.Before(*opts.To) {
			return errors.New("--from must be before --to")
		}
		window := analysis.NewWindow(opts.From.UTC(), opts.To.UTC())
		req.Window = &window
	case opts.From != nil || opts.To != nil:
		return errors.New("--from and --to must be provided together")
	}

	svc := service.New(a.Config, wh, a.newGenerator(), store, a.newNotifier(), nil, a.Logger)

	report, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}

	return writeReport(report, opts.OutPath)
}

func writeReport(report *service.Report, outPath string) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	payload = append(payload, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	if err := ensureDir(outPath); err != nil {
		return err
	}
	return os.WriteFile(outPath, payload, 0o644)
}
