package ai

import (
	"math/rand"
	"time"
)

// newRand returns a random source for the AI. A zero seed draws a
// time-based seed; use a fixed seed for reproducible turns.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// uniform returns a value in [-spread, +spread].
func uniform(r *rand.Rand, spread float64) float64 {
	if spread <= 0 {
		return 0
	}
	return (r.Float64()*2 - 1) * spread
}
