// Package utils contains shared helpers for the pose estimation library.
package utils

import "math/rand"

// goldenGamma is the 64-bit golden-ratio increment used to derive
// well-separated child seeds from a master seed.
const goldenGamma = 0x9E3779B97F4A7C15

// Rand is a seedable PRNG stream. Every component that draws random numbers
// receives an explicit stream so that runs are reproducible for a given
// master seed, and so that parallel MCMC chains never share state.
type Rand struct {
	seed int64
	src  *rand.Rand
}

// NewRand returns a stream seeded with the given value.
func NewRand(seed int64) *Rand {
	return &Rand{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// Fork derives an independent stream for the given child id. Children with
// distinct ids get distinct, deterministic seeds.
func (r *Rand) Fork(id int64) *Rand {
	child := uint64(r.seed) ^ uint64(id+1)*goldenGamma
	return NewRand(int64(child))
}

// Uniform returns a sample from U(0,1).
func (r *Rand) Uniform() float64 {
	return r.src.Float64()
}

// UniformInt returns a sample from {0, ..., n-1}.
func (r *Rand) UniformInt(n int) int {
	return r.src.Intn(n)
}

// NormFloat64 returns a standard normal sample.
func (r *Rand) NormFloat64() float64 {
	return r.src.NormFloat64()
}

// Shuffle pseudo-randomizes the order of n elements using this stream, making
// shuffles reproducible.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}
