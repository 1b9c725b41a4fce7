package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file should fall back to defaults: %v", err)
	}

	if cfg.Analysis.Workers != 4 {
		t.Fatalf("analysis.workers default = %d, want 4", cfg.Analysis.Workers)
	}
	if cfg.Analysis.GenerationTimeout != 60*time.Second {
		t.Fatalf("analysis.generation_timeout default = %s, want 60s", cfg.Analysis.GenerationTimeout)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("llm.temperature default = %v, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.Scheduler.Interval != 24*time.Hour {
		t.Fatalf("scheduler.interval default = %s, want 24h", cfg.Scheduler.Interval)
	}
	if cfg.Analysis.Schema != "public" {
		t.Fatalf("analysis.schema default = %q, want public", cfg.Analysis.Schema)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, "analysis.workers"},
		{"negative timeout", func(c *Config) { c.Analysis.GenerationTimeout = -time.Second }, "analysis.generation_timeout"},
		{"temperature range", func(c *Config) { c.LLM.Temperature = 3.5 }, "llm.temperature"},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }, "scheduler.interval"},
		{"zero batch", func(c *Config) { c.Ingest.BatchSize = 0 }, "ingest.batch_size"},
		{"telegram without token", func(c *Config) { c.Alerting.Telegram.Enabled = true }, "bot_token"},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: Validate should fail", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q should mention %q", tc.name, err, tc.want)
		}
	}
}

func TestResolveSchema(t *testing.T) {
	cfg := &Config{Analysis: AnalysisConfig{Schema: "public"}}
	if got := cfg.ResolveSchema(""); got != "public" {
		t.Fatalf("empty override should fall back to config, got %q", got)
	}
	if got := cfg.ResolveSchema("finops"); got != "finops" {
		t.Fatalf("override should win, got %q", got)
	}
}
