package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults should succeed: %v", err)
	}

	if cfg.Scheduler.RadarInterval != time.Hour {
		t.Fatalf("radar interval default wrong: %v", cfg.Scheduler.RadarInterval)
	}
	if cfg.Scheduler.TrendsInterval != 6*time.Hour {
		t.Fatalf("trends interval default wrong: %v", cfg.Scheduler.TrendsInterval)
	}
	if cfg.Scoring.DropThresholdPct != 10 {
		t.Fatalf("drop threshold default wrong: %v", cfg.Scoring.DropThresholdPct)
	}
	if cfg.Social.MaxChars != 260 {
		t.Fatalf("message budget default wrong: %d", cfg.Social.MaxChars)
	}
	if cfg.Social.ScheduleDelay != 20*time.Minute {
		t.Fatalf("schedule delay default wrong: %v", cfg.Social.ScheduleDelay)
	}
	if len(cfg.Sources) != 3 {
		t.Fatalf("expected 3 default retailers, got %d", len(cfg.Sources))
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults should succeed: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero radar interval", func(c *Config) { c.Scheduler.RadarInterval = 0 }},
		{"zero trends interval", func(c *Config) { c.Scheduler.TrendsInterval = 0 }},
		{"negative threshold", func(c *Config) { c.Scoring.DropThresholdPct = -1 }},
		{"zero lookback", func(c *Config) { c.Scoring.DropLookback = 0 }},
		{"tiny message budget", func(c *Config) { c.Social.MaxChars = 3 }},
		{"zero export points", func(c *Config) { c.Export.MaxDataPoints = 0 }},
		{"nameless source", func(c *Config) { c.Sources = append(c.Sources, SourceConfig{}) }},
	}

	for _, tc := range cases {
		cfg := *base
		cfg.Sources = append([]SourceConfig(nil), base.Sources...)
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Fatalf("expected config default 500, got %d", got)
	}
	if got := cfg.ResolveMaxPoints(42); got != 42 {
		t.Fatalf("expected override 42, got %d", got)
	}
}
