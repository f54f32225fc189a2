package config

import (
	"fmt"
	"math"
	"net/url"
	"os"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadPresets loads and parses a presets file
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}
	presets, err := ParsePresetsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}
	return presets, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validateRun(&cfg.Run); err != nil {
		return fmt.Errorf("run validation failed: %w", err)
	}

	if cfg.Presenter.Mode != "static" && cfg.Presenter.Mode != "derived" {
		return fmt.Errorf("invalid presenter mode: %s (must be static or derived)", cfg.Presenter.Mode)
	}

	if err := validateDefaults(&cfg.Defaults); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}

	for i, wh := range cfg.Webhooks {
		if err := validateWebhook(&wh); err != nil {
			return fmt.Errorf("webhook %d: %w", i, err)
		}
	}

	return nil
}

// validateRun validates the run cadence
func validateRun(r *RunConfig) error {
	if r.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", r.TickInterval)
	}
	if r.ProgressStep <= 0 || r.ProgressStep > 100 {
		return fmt.Errorf("progress_step must be in (0, 100], got %f", r.ProgressStep)
	}
	// Progress has to land on exactly 100.
	if steps := 100 / r.ProgressStep; math.Abs(steps-math.Round(steps)) > 1e-9 {
		return fmt.Errorf("progress_step must divide 100 evenly, got %f", r.ProgressStep)
	}
	if r.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got %s", r.FrameInterval)
	}
	if r.SolutionCount <= 0 {
		return fmt.Errorf("solution_count must be positive, got %d", r.SolutionCount)
	}
	if r.ImproveEvery <= 0 {
		return fmt.Errorf("improve_every must be positive, got %d", r.ImproveEvery)
	}
	if r.PerturbEvery <= 0 {
		return fmt.Errorf("perturb_every must be positive, got %d", r.PerturbEvery)
	}
	if r.LoadingDelay < 0 {
		return fmt.Errorf("loading_delay cannot be negative, got %s", r.LoadingDelay)
	}
	return nil
}

// validateDefaults checks the initial slider positions. The weights are not
// required to sum to 100; an unbalanced start simply leaves the run disabled.
func validateDefaults(d *Defaults) error {
	weights := map[string]float64{
		"cost":           d.Cost,
		"time":           d.Time,
		"emissions":      d.Emissions,
		"local_sourcing": d.LocalSourcing,
		"reliability":    d.Reliability,
	}
	for name, v := range weights {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %f", name, v)
		}
	}
	if d.Strength < 10 || d.Strength > 100 {
		return fmt.Errorf("strength must be between 10 and 100, got %f", d.Strength)
	}
	return nil
}

// validateWebhook validates a completion callback
func validateWebhook(wh *Webhook) error {
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", wh.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", wh.URL)
	}
	if wh.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", wh.MaxRetries)
	}
	validBackoffs := map[string]bool{
		utils.BackoffConstant:            true,
		utils.BackoffExponential:         true,
		utils.BackoffExponentialNoJitter: true,
	}
	if !validBackoffs[wh.Backoff] {
		return fmt.Errorf("invalid backoff type: %s (must be constant, exponential, or exponential_nojitter)", wh.Backoff)
	}
	return nil
}

// validatePresets validates named parameter sets
func validatePresets(presets []Preset) error {
	if len(presets) == 0 {
		return fmt.Errorf("at least one preset must be defined")
	}
	names := make(map[string]bool)
	for _, p := range presets {
		if p.Name == "" {
			return fmt.Errorf("preset name cannot be empty")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate preset name: %s", p.Name)
		}
		names[p.Name] = true

		d := Defaults{
			Cost:          p.Params.Cost,
			Time:          p.Params.Time,
			Emissions:     p.Params.Emissions,
			LocalSourcing: p.Params.LocalSourcing,
			Reliability:   p.Params.Reliability,
			Strength:      p.Params.Strength,
		}
		if err := validateDefaults(&d); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}
