package config

import (
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// Config represents the optimization center daemon configuration
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Run       RunConfig       `yaml:"run"`
	Presenter PresenterConfig `yaml:"presenter"`
	Defaults  Defaults        `yaml:"defaults"`
	Webhooks  []Webhook       `yaml:"webhooks,omitempty"`
	History   HistoryConfig   `yaml:"history"`
}

// ServerConfig holds listen addresses
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// RunConfig controls the cadence and shape of a mock optimization run
type RunConfig struct {
	// TickInterval is the progress timer period. Progress advances by
	// ProgressStep on every tick regardless of frame rate.
	TickInterval  time.Duration `yaml:"tick_interval"`
	ProgressStep  float64       `yaml:"progress_step"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	SolutionCount int           `yaml:"solution_count"`
	ImproveEvery  int           `yaml:"improve_every"`
	PerturbEvery  int           `yaml:"perturb_every"`
	Seed          int64         `yaml:"seed"`
	LoadingDelay  time.Duration `yaml:"loading_delay"`
}

// Ticks returns how many progress ticks a run takes to reach 100
func (r RunConfig) Ticks() int {
	if r.ProgressStep <= 0 {
		return 0
	}
	return int(100 / r.ProgressStep)
}

// Duration returns the nominal wall-clock length of a run
func (r RunConfig) Duration() time.Duration {
	return time.Duration(r.Ticks()) * r.TickInterval
}

// PresenterConfig selects how result percentages are produced
type PresenterConfig struct {
	Mode string `yaml:"mode"` // static or derived
}

// Defaults are the parameters a freshly mounted session starts with
type Defaults struct {
	Cost          float64 `yaml:"cost"`
	Time          float64 `yaml:"time"`
	Emissions     float64 `yaml:"emissions"`
	LocalSourcing float64 `yaml:"local_sourcing"`
	Reliability   float64 `yaml:"reliability"`
	Strength      float64 `yaml:"strength"`
}

// Params converts the defaults into run parameters
func (d Defaults) Params() models.OptimizationParams {
	return models.OptimizationParams{
		Weights: models.Weights{
			Cost:          d.Cost,
			Time:          d.Time,
			Emissions:     d.Emissions,
			LocalSourcing: d.LocalSourcing,
			Reliability:   d.Reliability,
		},
		Strength: d.Strength,
	}
}

// Webhook is an external completion callback
type Webhook struct {
	URL        string        `yaml:"url"`
	Secret     string        `yaml:"secret,omitempty"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    string        `yaml:"backoff"` // constant, exponential, exponential_nojitter
	BaseDelay  time.Duration `yaml:"base_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// HistoryConfig configures the completed-run archive
type HistoryConfig struct {
	Path string `yaml:"path"` // empty disables the archive
}

// Preset is a named parameter set offered by the dashboard
type Preset struct {
	Name        string                    `yaml:"name"`
	Description string                    `yaml:"description,omitempty"`
	Params      models.OptimizationParams `yaml:"params"`
}

// PresetFile is the on-disk layout of a presets file
type PresetFile struct {
	Presets []Preset `yaml:"presets"`
}
