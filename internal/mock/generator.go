package mock

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Generator produces demo telemetry and earnings. All randomness comes from
// the injected source so a fixed seed reproduces the same output.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator wraps rng. The generator serialises access to it.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeededGenerator returns a generator over a PCG source seeded with seed.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// between returns a value in [lo, hi). Callers hold g.mu.
func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// jitter returns a value in [-amplitude, amplitude). Callers hold g.mu.
func (g *Generator) jitter(amplitude float64) float64 {
	return (g.rng.Float64() - 0.5) * 2 * amplitude
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
