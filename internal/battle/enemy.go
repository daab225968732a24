package battle

import (
	"math/rand/v2"
	"sync"

	"github.com/abhisek/mathduel/internal/problemgen"
)

// Strategy decides whether the enemy answers a problem correctly.
type Strategy interface {
	Decide(p *problemgen.Problem) bool
}

// Bernoulli answers correctly with a fixed probability.
type Bernoulli struct {
	P float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBernoulli returns a Bernoulli strategy seeded for reproducible duels.
func NewBernoulli(p float64, seed uint64) *Bernoulli {
	return &Bernoulli{P: p, rng: rand.New(rand.NewPCG(seed, seed>>1))}
}

func (b *Bernoulli) Decide(*problemgen.Problem) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < b.P
}

// Scaled answers harder problems correctly less often: 0.85 at
// difficulty 1 dropping by 0.05 per level.
type Scaled struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScaled returns a difficulty-scaled strategy.
func NewScaled(seed uint64) *Scaled {
	return &Scaled{rng: rand.New(rand.NewPCG(seed, seed>>1))}
}

func (s *Scaled) Decide(p *problemgen.Problem) bool {
	d := 1
	if p != nil {
		d = p.Difficulty
	}
	prob := max(0.1, 0.85-0.05*float64(d-1))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < prob
}

// NewStrategy builds a strategy by name: "scaled" or "fixed". Unknown names
// get the scaled strategy.
func NewStrategy(name string, p float64, seed uint64) Strategy {
	if name == "fixed" {
		return NewBernoulli(p, seed)
	}
	return NewScaled(seed)
}
