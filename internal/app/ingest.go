package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud-cost-advisor/internal/ingest"
)

// Ingest loads metric samples from a CSV file, filters out rows already
// persisted via their dedup key, and inserts only the remainder. Re-running
// the same file is a no-op.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	file, err := os.Open(opts.Path)
	if err != nil {
		return fmt.Errorf("open samples file: %w", err)
	}
	defer file.Close()

	samples, err := ingest.ReadSamplesCSV(file)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("path", opts.Path).Msg("no samples in file")
		return nil
	}

	store, _, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot ingest")
	}
	defer closeStores()

	schema := a.Config.ResolveSchema(opts.Schema)

	existing, err := store.ExistingKeys(ctx, schema)
	if err != nil {
		return err
	}

	fresh := ingest.FilterNew(samples, existing)
	skipped := len(samples) - len(fresh)

	inserted := 0
	batchSize := a.Config.Ingest.BatchSize
	if batchSize <= 0 {
		batchSize = len(fresh)
	}
	for start := 0; start < len(fresh); start += batchSize {
		end := start + batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		n, err := store.InsertSamples(ctx, schema, fresh[start:end])
		if err != nil {
			return err
		}
		inserted += n
	}

	a.Logger.Info().
		Str("path", opts.Path).
		Int("read", len(samples)).
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("ingestion complete")
	return nil
}
