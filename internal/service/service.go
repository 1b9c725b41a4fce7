package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cloud-cost-advisor/internal/alerting"
	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/config"
	"cloud-cost-advisor/internal/metrics"
	"cloud-cost-advisor/internal/storage"
	"cloud-cost-advisor/internal/warehouse"
)

// UtilizationSource fetches cost-joined rows for one dataset.
type UtilizationSource interface {
	FetchUtilization(ctx context.Context, dataset warehouse.Dataset, schema string, window analysis.Window, resourceID string) ([]analysis.RawUtilizationRow, error)
}

// RecommendationGenerator turns one normalized record into a recommendation.
type RecommendationGenerator interface {
	Generate(ctx context.Context, rec analysis.UtilizationRecord) (analysis.Recommendation, error)
}

// Request names one analysis invocation. A nil Window falls back to the
// dataset's default lookback; an empty Schema falls back to the configured
// default.
type Request struct {
	Cloud        string
	ResourceType string
	Schema       string
	ResourceID   string
	Window       *analysis.Window
}

// Report is the caller-facing result of one run. An empty Recommendations
// slice is a valid outcome, not an error.
type Report struct {
	RunID           string                    `json:"run_id"`
	Cloud           analysis.Cloud            `json:"cloud"`
	ResourceType    analysis.ResourceType     `json:"resource_type"`
	Schema          string                    `json:"schema"`
	Dataset         string                    `json:"dataset"`
	WindowStart     time.Time                 `json:"window_start"`
	WindowEnd       time.Time                 `json:"window_end"`
	DurationDays    int                       `json:"duration_days"`
	Analyzed        int                       `json:"analyzed"`
	Failed          int                       `json:"failed"`
	Recommendations []analysis.Recommendation `json:"recommendations"`
	StartedAt       time.Time                 `json:"started_at"`
	FinishedAt      time.Time                 `json:"finished_at"`
}

// Service orchestrates the recommendation pipeline: resolve, guard, fetch,
// normalize, generate, aggregate, persist, notify.
type Service struct {
	source    UtilizationSource
	generator RecommendationGenerator
	recStore  storage.RecommendationStore
	notifier  alerting.Notifier
	pipeline  *metrics.Pipeline
	logger    zerolog.Logger

	workers       int
	defaultSchema string
	minSavingPct  float64
}

// New constructs the orchestrator. recStore, notifier, and pipeline are
// optional; a nil collaborator simply disables that step.
func New(cfg *config.Config, source UtilizationSource, generator RecommendationGenerator, recStore storage.RecommendationStore, notifier alerting.Notifier, pipeline *metrics.Pipeline, logger zerolog.Logger) *Service {
	workers := cfg.Analysis.Workers
	if workers <= 0 {
		workers = 4
	}

	return &Service{
		source:        source,
		generator:     generator,
		recStore:      recStore,
		notifier:      notifier,
		pipeline:      pipeline,
		logger:        logger.With().Str("component", "service").Logger(),
		workers:       workers,
		defaultSchema: cfg.Analysis.Schema,
		minSavingPct:  cfg.Alerting.MinSavingPct,
	}
}

// Analyze runs the full pipeline for one request. Only an unsupported
// resource type, a guard mismatch, or a data-source failure escape as
// errors; per-resource generation failures are absorbed and reported as
// omissions in the returned report.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	cloud := analysis.CanonicalCloud(req.Cloud)
	resourceType := analysis.CanonicalType(req.ResourceType)

	dataset, err := warehouse.Resolve(cloud, resourceType)
	if err != nil {
		return nil, err
	}

	if req.ResourceID != "" && !analysis.Consistent(resourceType, req.ResourceID) {
		return nil, fmt.Errorf("%w: %q is not a %s id", analysis.ErrResourceTypeMismatch, req.ResourceID, resourceType)
	}

	schema := req.Schema
	if schema == "" {
		schema = s.defaultSchema
	}

	window := dataset.DefaultWindow(time.Now().UTC())
	if req.Window != nil {
		window = *req.Window
	}

	report := &Report{
		RunID:           uuid.NewString(),
		Cloud:           cloud,
		ResourceType:    resourceType,
		Schema:          schema,
		Dataset:         dataset.Name,
		WindowStart:     window.Start,
		WindowEnd:       window.End,
		DurationDays:    window.DurationDays,
		Recommendations: []analysis.Recommendation{},
		StartedAt:       time.Now().UTC(),
	}
	log := s.logger.With().Str("run_id", report.RunID).Str("dataset", dataset.Name).Logger()

	rows, err := s.source.FetchUtilization(ctx, dataset, schema, window, req.ResourceID)
	if err != nil {
		return nil, &analysis.DataFetchError{Dataset: dataset.Name, Err: err}
	}
	if len(rows) == 0 {
		log.Info().Msg("fetch returned no rows")
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	// First-row-wins when a single-resource request matches several rows.
	// The fetch ordering decides which row that is; the rest are dropped,
	// loudly, for compatibility with how stored reports are keyed.
	if req.ResourceID != "" && len(rows) > 1 {
		log.Warn().Str("resource_id", req.ResourceID).Int("rows", len(rows)).
			Msg("single-resource fetch matched multiple rows, keeping the first")
		rows = rows[:1]
	}

	records := make([]analysis.UtilizationRecord, len(rows))
	for i, row := range rows {
		records[i] = analysis.Normalize(row, cloud, resourceType, window)
	}

	generated := s.generateAll(ctx, log, records)
	for i, res := range generated {
		if res.err != nil {
			report.Failed++
			if s.pipeline != nil {
				s.pipeline.GenerationFailures.WithLabelValues(string(cloud), string(resourceType)).Inc()
			}
			log.Warn().Err(res.err).Str("resource_id", records[i].ResourceID).Str("stage", "generate").
				Msg("resource skipped")
			continue
		}
		report.Recommendations = append(report.Recommendations, res.rec)
	}
	report.Analyzed = len(report.Recommendations)
	report.FinishedAt = time.Now().UTC()

	if s.pipeline != nil {
		s.pipeline.ResourcesAnalyzed.WithLabelValues(string(cloud), string(resourceType)).Add(float64(report.Analyzed))
		s.pipeline.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	s.persist(ctx, log, report)
	s.notify(ctx, log, report)

	log.Info().Int("analyzed", report.Analyzed).Int("failed", report.Failed).Msg("analysis run complete")
	return report, nil
}

type generateResult struct {
	rec analysis.Recommendation
	err error
}

// generateAll fans the per-resource work over a bounded worker pool.
// Results are index-addressed, so aggregation stays in input order without
// any coordination beyond the WaitGroup.
func (s *Service) generateAll(ctx context.Context, log zerolog.Logger, records []analysis.UtilizationRecord) []generateResult {
	results := make([]generateResult, len(records))

	workers := s.workers
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := s.generator.Generate(ctx, records[i])
				results[i] = generateResult{rec: rec, err: err}
			}
		}()
	}

	for i := range records {
		select {
		case <-ctx.Done():
			log.Warn().Msg("run cancelled, remaining resources skipped")
			for j := i; j < len(records); j++ {
				results[j] = generateResult{err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (s *Service) persist(ctx context.Context, log zerolog.Logger, report *Report) {
	if s.recStore == nil || len(report.Recommendations) == 0 {
		return
	}

	batch := make([]storage.StoredRecommendation, 0, len(report.Recommendations))
	for _, rec := range report.Recommendations {
		document, err := json.Marshal(rec)
		if err != nil {
			log.Error().Err(err).Str("resource_id", rec.ResourceID()).Msg("recommendation not serialisable, not persisted")
			continue
		}
		batch = append(batch, storage.StoredRecommendation{
			ResourceID:      rec.ResourceID(),
			ResourceType:    string(report.ResourceType),
			Cloud:           string(report.Cloud),
			RunID:           report.RunID,
			Document:        document,
			ForecastMonthly: decimal.NewFromFloat(rec.ForecastMonthly()),
			ForecastAnnual:  decimal.NewFromFloat(rec.ForecastAnnual()),
			WindowStart:     report.WindowStart,
			WindowEnd:       report.WindowEnd,
		})
	}

	if err := s.recStore.SaveRecommendations(ctx, report.Schema, batch); err != nil {
		log.Error().Err(err).Msg("failed to persist recommendations")
		return
	}
	if s.pipeline != nil {
		s.pipeline.RecommendationsStored.Add(float64(len(batch)))
	}
}

func (s *Service) notify(ctx context.Context, log zerolog.Logger, report *Report) {
	if s.notifier == nil || (report.Analyzed == 0 && report.Failed == 0) {
		return
	}

	topResource, topSaving := topEffectiveSaving(report.Recommendations)
	if s.minSavingPct > 0 && topSaving < s.minSavingPct {
		log.Debug().Float64("top_saving_pct", topSaving).Msg("run summary below alerting threshold")
		return
	}

	summary := alerting.RunSummary{
		RunID:        report.RunID,
		Cloud:        string(report.Cloud),
		ResourceType: string(report.ResourceType),
		Schema:       report.Schema,
		WindowStart:  report.WindowStart,
		WindowEnd:    report.WindowEnd,
		Analyzed:     report.Analyzed,
		Failed:       report.Failed,
		TopResource:  topResource,
		TopSavingPct: topSaving,
	}
	if err := s.notifier.Notify(ctx, summary); err != nil {
		log.Error().Err(err).Msg("failed to send run summary")
	}
}

// topEffectiveSaving finds the largest effective saving in a batch.
// Recommendations whose typed view does not decode simply do not compete.
func topEffectiveSaving(recs []analysis.Recommendation) (string, float64) {
	resource := ""
	best := 0.0
	for _, rec := range recs {
		summary, err := rec.Summarize()
		if err != nil {
			continue
		}
		if summary.Recommendations.Effective.SavingPct > best {
			best = summary.Recommendations.Effective.SavingPct
			resource = rec.ResourceID()
		}
	}
	return resource, best
}

// Target is one (cloud, resource type, schema) triple the scheduler runs.
type Target struct {
	Cloud        string
	ResourceType string
	Schema       string
}

// ParseTarget parses "cloud:resource_type" or "cloud:resource_type:schema".
func ParseTarget(raw, defaultSchema string) (Target, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Target{}, fmt.Errorf("invalid target %q, want cloud:resource_type[:schema]", raw)
	}
	target := Target{Cloud: parts[0], ResourceType: parts[1], Schema: defaultSchema}
	if len(parts) == 3 && parts[2] != "" {
		target.Schema = parts[2]
	}
	return target, nil
}
