// Package generator provides seeded random sources for searches and keys.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/subcrack/internal/cipher"
)

// Generator derives reproducible random streams from a single seed.
type Generator struct {
	seed int64
	rnd  *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator for a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{seed: seed, rnd: rand.New(rand.NewSource(seed))}
}

// ForSeed treats a zero seed as "pick one from the clock".
func ForSeed(seed int64) *Generator {
	if seed == 0 {
		return New()
	}
	return NewSeeded(seed)
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// TrialSeeds draws one seed per trial, in trial order.
func (g *Generator) TrialSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = g.rnd.Int63()
	}
	return seeds
}

// Rand returns an independent source for a derived seed.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// RandomKey returns a uniformly shuffled substitution key.
func (g *Generator) RandomKey() cipher.Key {
	return cipher.Random(g.rnd)
}
