package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("Default() should be valid, got %v", err)
	}
	if cfg.Run.Ticks() != 200 {
		t.Errorf("Ticks() = %d, want 200", cfg.Run.Ticks())
	}
	if cfg.Run.Duration() != 20*time.Second {
		t.Errorf("Duration() = %v, want 20s", cfg.Run.Duration())
	}
	if cfg.Defaults.Params().Total() != 100 {
		t.Errorf("default weights total = %f, want 100", cfg.Defaults.Params().Total())
	}
}

func TestParseConfigYAML(t *testing.T) {
	yamlText := `
log_level: debug
server:
  http_addr: ":9090"
run:
  tick_interval: 50ms
  progress_step: 1
  seed: 42
presenter:
  mode: derived
webhooks:
  - url: https://hooks.example.com/opt/{run_id}
    secret: s3cret
history:
  path: /tmp/runs.db
`
	cfg, err := ParseConfigYAMLString(yamlText)
	if err != nil {
		t.Fatalf("ParseConfigYAMLString() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %s, want :9090", cfg.Server.HTTPAddr)
	}
	// Unset keys keep their defaults
	if cfg.Server.GRPCAddr != ":50051" {
		t.Errorf("GRPCAddr = %s, want :50051", cfg.Server.GRPCAddr)
	}
	if cfg.Run.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.Run.TickInterval)
	}
	if cfg.Run.SolutionCount != 40 {
		t.Errorf("SolutionCount = %d, want 40", cfg.Run.SolutionCount)
	}
	if cfg.Run.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Run.Seed)
	}
	if cfg.Presenter.Mode != "derived" {
		t.Errorf("Presenter.Mode = %s, want derived", cfg.Presenter.Mode)
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("expected 1 webhook, got %d", len(cfg.Webhooks))
	}
	wh := cfg.Webhooks[0]
	if wh.MaxRetries != 3 || wh.Backoff != "exponential" || wh.BaseDelay != time.Second || wh.Timeout != 10*time.Second {
		t.Errorf("webhook defaults not applied: %+v", wh)
	}
	if cfg.History.Path != "/tmp/runs.db" {
		t.Errorf("History.Path = %s", cfg.History.Path)
	}
}

func TestParseConfigYAMLInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad log level", "log_level: loud", "invalid log_level"},
		{"zero tick", "run: {tick_interval: 0s}", "tick_interval must be positive"},
		{"uneven step", "run: {progress_step: 0.3}", "divide 100 evenly"},
		{"no solutions", "run: {solution_count: -1}", "solution_count must be positive"},
		{"bad presenter", "presenter: {mode: fancy}", "invalid presenter mode"},
		{"weak strength", "defaults: {strength: 5}", "strength must be between 10 and 100"},
		{"weight too high", "defaults: {cost: 120}", "cost must be between 0 and 100"},
		{"webhook scheme", "webhooks: [{url: 'ftp://x/y'}]", "scheme must be http or https"},
		{"webhook backoff", "webhooks: [{url: 'http://x/y', backoff: random}]", "invalid backoff type"},
		{"malformed yaml", "log_level: [", "failed to parse config yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigYAMLString(tt.yaml)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnbalancedDefaultsAreAllowed(t *testing.T) {
	cfg, err := ParseConfigYAMLString("defaults: {cost: 25}")
	if err != nil {
		t.Fatalf("unbalanced defaults should load, got %v", err)
	}
	if cfg.Defaults.Params().Total() != 95 {
		t.Errorf("Total() = %f, want 95", cfg.Defaults.Params().Total())
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "center.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPresets(t *testing.T) {
	yamlText := `
presets:
  - name: balanced
    params: {cost: 30, time: 25, emissions: 20, local_sourcing: 15, reliability: 10, strength: 50}
  - name: green
    description: emissions first
    params: {cost: 15, time: 15, emissions: 40, local_sourcing: 20, reliability: 10, strength: 80}
`
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	if err := os.WriteFile(path, []byte(yamlText), 0o600); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(presets))
	}
	green := presets[1]
	if green.Params.Emissions != 40 || green.Params.Strength != 80 {
		t.Errorf("green preset not parsed: %+v", green.Params)
	}
	if green.Params.Total() != 100 {
		t.Errorf("green total = %f, want 100", green.Params.Total())
	}
}

func TestParsePresetsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "presets: []"},
		{"no name", "presets: [{params: {strength: 50}}]"},
		{"duplicate", "presets: [{name: a, params: {strength: 50}}, {name: a, params: {strength: 50}}]"},
		{"bad strength", "presets: [{name: a, params: {strength: 0}}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePresetsYAML([]byte(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
