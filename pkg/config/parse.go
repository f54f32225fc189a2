package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

// Default returns the configuration used when no file is given.
// The run cadence reproduces the dashboard: 0.5% every 100ms, 40 candidates.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
		Run: RunConfig{
			TickInterval:  100 * time.Millisecond,
			ProgressStep:  0.5,
			FrameInterval: 16 * time.Millisecond,
			SolutionCount: 40,
			ImproveEvery:  10,
			PerturbEvery:  15,
			LoadingDelay:  800 * time.Millisecond,
		},
		Presenter: PresenterConfig{Mode: "static"},
		Defaults: Defaults{
			Cost:          30,
			Time:          25,
			Emissions:     20,
			LocalSourcing: 15,
			Reliability:   10,
			Strength:      50,
		},
	}
}

// ParseConfigYAML parses a Config from YAML bytes on top of Default and validates it.
func ParseConfigYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	applyWebhookDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// ParsePresetsYAML parses and validates a presets file.
func ParsePresetsYAML(data []byte) ([]Preset, error) {
	var file PresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets yaml: %w", err)
	}

	if err := validatePresets(file.Presets); err != nil {
		return nil, fmt.Errorf("invalid presets: %w", err)
	}

	return file.Presets, nil
}

func applyWebhookDefaults(cfg *Config) {
	for i := range cfg.Webhooks {
		wh := &cfg.Webhooks[i]
		if wh.MaxRetries == 0 {
			wh.MaxRetries = 3
		}
		if wh.Backoff == "" {
			wh.Backoff = utils.BackoffExponential
		}
		if wh.BaseDelay == 0 {
			wh.BaseDelay = time.Second
		}
		if wh.Timeout == 0 {
			wh.Timeout = 10 * time.Second
		}
	}
}
