package vendfall

import (
	"math"
	"math/rand/v2"
)

// Jitter produces render-only randomness: screen shake offsets and film
// grain. It owns its generator so drawing never perturbs the simulation's
// random sequence.
type Jitter struct {
	rng   *rand.Rand
	grain []Vec2
}

// NewJitter returns a Jitter seeded from seed.
func NewJitter(seed uint64) *Jitter {
	return &Jitter{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shake returns a random offset in [-amount/2, amount/2] on both axes.
// Non-positive or non-finite amounts give no offset.
func (j *Jitter) Shake(amount float64) Vec2 {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return Vec2{}
	}
	return Vec2{Spread(j.rng, amount/2), Spread(j.rng, amount/2)}
}

// Grain returns n random points inside a w by h canvas. The returned slice is
// reused by the next call.
func (j *Jitter) Grain(n int, w, h float64) []Vec2 {
	if n <= 0 || w <= 0 || h <= 0 {
		return j.grain[:0]
	}
	j.grain = j.grain[:0]
	for range n {
		j.grain = append(j.grain, Vec2{j.rng.Float64() * w, j.rng.Float64() * h})
	}
	return j.grain
}
