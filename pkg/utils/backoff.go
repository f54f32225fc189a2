package utils

import (
	"math"
	"time"
)

// Backoff type names accepted by BackoffFromConfig
const (
	BackoffConstant            = "constant"
	BackoffExponential         = "exponential"
	BackoffExponentialNoJitter = "exponential_nojitter"
)

const defaultMaxBackoff = 30 * time.Second

// jitter has its own source so webhook retries never consume draws from a
// seeded run
var jitter = NewRandSource(0)

// BackoffStrategy spaces out completion callback retries
type BackoffStrategy interface {
	// NextDelay returns the wait before retry number attempt (0-indexed)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits the same delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(int) time.Duration {
	return cb.Delay
}

// ExponentialBackoff multiplies the delay on every attempt up to MaxDelay.
// With Jitter the delay is scaled by a random factor in [0.5, 1.5).
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	Jitter     bool
}

// NewExponentialBackoff creates an exponential strategy. A non-positive
// multiplier doubles.
func NewExponentialBackoff(baseDelay, maxDelay time.Duration, multiplier float64, withJitter bool) *ExponentialBackoff {
	if multiplier <= 0 {
		multiplier = 2
	}
	return &ExponentialBackoff{
		BaseDelay:  baseDelay,
		Multiplier: multiplier,
		MaxDelay:   maxDelay,
		Jitter:     withJitter,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if eb.MaxDelay > 0 {
		delay = math.Min(delay, float64(eb.MaxDelay))
	}
	if eb.Jitter {
		delay *= jitter.UniformFloat64(0.5, 1.5)
	}
	return time.Duration(delay)
}

// BackoffFromConfig builds the strategy named by a webhook config. Unknown
// names get jittered exponential backoff; a zero max caps delays at 30s.
func BackoffFromConfig(backoffType string, base, max time.Duration) BackoffStrategy {
	if max == 0 {
		max = defaultMaxBackoff
	}
	switch backoffType {
	case BackoffConstant:
		return &ConstantBackoff{Delay: base}
	case BackoffExponentialNoJitter:
		return NewExponentialBackoff(base, max, 2, false)
	default:
		return NewExponentialBackoff(base, max, 2, true)
	}
}
