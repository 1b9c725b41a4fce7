package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TextGenerator produces a free-text completion for a prompt. The
// chat-completions client implements it; scripted fakes stand in for tests
// and simulation.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratorOptions parameterise the recommendation generator.
type GeneratorOptions struct {
	// Timeout bounds a single completion call. A timed-out call is treated
	// like an empty response.
	Timeout time.Duration
}

// Generator turns one normalized record into one recommendation.
type Generator struct {
	gen     TextGenerator
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGenerator constructs a generator around the text-generation capability.
func NewGenerator(gen TextGenerator, opts GeneratorOptions, logger zerolog.Logger) *Generator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		gen:     gen,
		timeout: timeout,
		logger:  logger.With().Str("component", "generator").Logger(),
	}
}

// Generate runs forecast, prompt, completion, extraction, and stamping for
// one record. Failures are soft: the returned error is ErrEmptyResponse or
// ErrMalformedJSON, logged and skipped by the orchestrator without
// aborting the batch. A malformed response earns exactly one retry.
func (g *Generator) Generate(ctx context.Context, rec UtilizationRecord) (Recommendation, error) {
	forecast := Extrapolate(rec.BilledCost, rec.Window.DurationDays)
	prompt := BuildPrompt(rec, forecast)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		g.logger.Debug().Err(err).Str("resource_id", rec.ResourceID).Str("stage", "generate").Msg("completion call failed")
		return nil, ErrEmptyResponse
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	parsed, perr := parseRecommendation(raw)
	if perr != nil {
		g.logger.Debug().Str("resource_id", rec.ResourceID).Str("stage", "generate").Msg("malformed response, retrying once")
		retry, rerr := g.complete(ctx, prompt)
		if rerr != nil || strings.TrimSpace(retry) == "" {
			return nil, ErrEmptyResponse
		}
		parsed, perr = parseRecommendation(retry)
		if perr != nil {
			return nil, perr
		}
	}

	monthly, _ := forecast.Monthly.Float64()
	annual, _ := forecast.Annually.Float64()
	parsed[keyResourceID] = rec.ResourceID
	parsed[keyForecastMonthly] = monthly
	parsed[keyForecastAnnual] = annual
	return parsed, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.gen.Complete(cctx, prompt)
}

// parseRecommendation extracts and parses the JSON object carried in a
// generation response.
func parseRecommendation(raw string) (Recommendation, error) {
	candidate := extractJSONObject(raw)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, ErrMalformedJSON
	}
	if parsed == nil {
		return nil, ErrMalformedJSON
	}
	return Recommendation(parsed), nil
}

// extractJSONObject returns the outermost balanced {...} region of the
// input, tolerating prose or code fences around it. The brace walk is
// string-aware so braces inside JSON strings do not affect depth. When no
// balanced region exists the whole trimmed input is returned, so the parse
// failure reports against the real payload.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return strings.TrimSpace(raw)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return strings.TrimSpace(raw)
}
