package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pipeline holds the counters the recommendation pipeline increments while
// the long-running service is active.
type Pipeline struct {
	ResourcesAnalyzed     *prometheus.CounterVec
	GenerationFailures    *prometheus.CounterVec
	RecommendationsStored prometheus.Counter
	RunDuration           prometheus.Histogram
}

// NewPipeline constructs and registers the pipeline collectors.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		ResourcesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costadvisor",
			Name:      "resources_analyzed_total",
			Help:      "Resources that completed the recommendation pipeline.",
		}, []string{"cloud", "resource_type"}),
		GenerationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costadvisor",
			Name:      "generation_failures_total",
			Help:      "Per-resource generation failures absorbed as omissions.",
		}, []string{"cloud", "resource_type"}),
		RecommendationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "costadvisor",
			Name:      "recommendations_stored_total",
			Help:      "Recommendation documents persisted to the warehouse.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "costadvisor",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one batch analysis run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(
		p.ResourcesAnalyzed,
		p.GenerationFailures,
		p.RecommendationsStored,
		p.RunDuration,
	)
	return p
}

// Serve exposes the gatherer over HTTP until ctx is cancelled. It blocks;
// callers run it in its own goroutine alongside the service loop.
func Serve(ctx context.Context, addr, path string, gatherer prometheus.Gatherer, logger zerolog.Logger) error {
	log := logger.With().Str("component", "metrics").Logger()
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("path", path).Msg("metrics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics listener shutdown failed")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
