package utils

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource is a mutex-guarded PRNG that remembers its seed, so a run can
// be replayed from the seed alone.
type RandSource struct {
	seed int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource seeds a source. Zero picks a seed from the wall clock.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func (r *RandSource) Seed() int64 { return r.seed }

// Float64 draws from [0, 1).
func (r *RandSource) Float64() float64 {
	r.mu.Lock()
	v := r.rng.Float64()
	r.mu.Unlock()
	return v
}

// UniformFloat64 draws from [lo, hi).
func (r *RandSource) UniformFloat64(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
