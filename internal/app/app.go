package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"cloud-cost-advisor/internal/alerting"
	"cloud-cost-advisor/internal/analysis"
	"cloud-cost-advisor/internal/config"
	"cloud-cost-advisor/internal/llm"
	"cloud-cost-advisor/internal/metrics"
	"cloud-cost-advisor/internal/scheduler"
	"cloud-cost-advisor/internal/service"
	"cloud-cost-advisor/internal/storage"
	"cloud-cost-advisor/internal/warehouse"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newGenerator() *analysis.Generator {
	client := llm.NewClient(llm.Options{
		BaseURL:     a.Config.LLM.BaseURL,
		APIKey:      a.Config.LLM.APIKey,
		Model:       a.Config.LLM.Model,
		Temperature: a.Config.LLM.Temperature,
		MaxTokens:   a.Config.LLM.MaxTokens,
		Timeout:     a.Config.LLM.RequestTimeout,
	}, a.Logger)

	return analysis.NewGenerator(client, analysis.GeneratorOptions{
		Timeout: a.Config.Analysis.GenerationTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// openStores opens one pool shared by the warehouse reader and the
// recommendation/ingest stores. A missing DSN yields nil stores, not an
// error; commands that cannot work without a database reject that case
// themselves.
func (a *App) openStores(ctx context.Context) (*storage.Store, *warehouse.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	store := storage.NewStore(pool)
	wh := warehouse.NewStore(pool, a.Logger)
	closer := func() {
		store.Close()
	}
	return store, wh, closer, nil
}

// Run executes the long-running scheduled analysis service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, wh, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if wh == nil {
		return errors.New("database.dsn not configured; the run service needs the warehouse")
	}
	defer closeStores()

	targets := make([]service.Target, 0, len(a.Config.Scheduler.Targets))
	for _, raw := range a.Config.Scheduler.Targets {
		target, err := service.ParseTarget(raw, a.Config.Analysis.Schema)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return errors.New("scheduler.targets is empty; nothing to run")
	}

	var pipeline *metrics.Pipeline
	if a.Config.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		pipeline = metrics.NewPipeline(registry)
		go func() {
			if err := metrics.Serve(ctx, a.Config.Metrics.ListenAddr, a.Config.Metrics.Path, registry, a.Logger); err != nil {
				a.Logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	svc := service.New(a.Config, wh, a.newGenerator(), store, a.newNotifier(), pipeline, a.Logger)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Int("targets", len(targets)).Msg("starting analysis service")
	err = sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
		return a.runTargets(ctx, svc, targets)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("analysis service stopped")
	return nil
}

// runTargets analyses every configured target. A failing target does not
// stop the others; the combined error is reported to the scheduler for
// logging.
func (a *App) runTargets(ctx context.Context, svc *service.Service, targets []service.Target) error {
	var errs []error
	for _, target := range targets {
		report, err := svc.Analyze(ctx, service.Request{
			Cloud:        target.Cloud,
			ResourceType: target.ResourceType,
			Schema:       target.Schema,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("target %s:%s: %w", target.Cloud, target.ResourceType, err))
			continue
		}
		a.Logger.Info().
			Str("target", target.Cloud+":"+target.ResourceType).
			Int("analyzed", report.Analyzed).
			Int("failed", report.Failed).
			Msg("target complete")
	}
	return errors.Join(errs...)
}

// AnalyzeOptions configure a one-shot analysis run.
type AnalyzeOptions struct {
	Cloud        string
	ResourceType string
	Schema       string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	OutPath      string
}

// IngestOptions configure metric-sample ingestion.
type IngestOptions struct {
	Path   string
	Schema string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Schema string
	Limit  int
}

// ExportOptions hold parameters for exporting stored recommendations.
type ExportOptions struct {
	Schema  string
	Limit   int
	CSVPath string
	PNGPath string
	PDFPath string
}

// SimulateOptions configure an offline pipeline run.
type SimulateOptions struct {
	Cloud        string
	ResourceType string
}
