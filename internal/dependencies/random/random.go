package random

import (
	"math/bits"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Shuffle permutes n elements in place with a forward Fisher-Yates pass
	Shuffle(n int, swap func(i, j int))
}

// Seeded is a xoshiro256** generator seeded through splitmix64. Its output
// sequence is fixed for a given seed, which keeps targeting reproducible
// across runs and machines.
type Seeded struct {
	s [4]uint64
}

// NewSeeded creates a generator from an integer seed.
func NewSeeded(seed int64) *Seeded {
	r := &Seeded{}
	r.Reseed(seed)
	return r
}

// Reseed resets the generator state from seed.
func (r *Seeded) Reseed(seed int64) {
	x := uint64(seed)
	for i := range r.s {
		x += 0x9e3779b97f4a7c15
		z := x
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		r.s[i] = z ^ (z >> 31)
	}
}

// Uint64 returns the next 64 bits of output.
func (r *Seeded) Uint64() uint64 {
	result := bits.RotateLeft64(r.s[1]*5, 7) * 9
	t := r.s[1] << 17

	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]

	r.s[2] ^= t
	r.s[3] = bits.RotateLeft64(r.s[3], 45)

	return result
}

// Intn returns an int in [0, n) by rejection sampling, so every value is
// equally likely.
func (r *Seeded) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		v := r.Uint64()
		if v < limit {
			return int(v % bound)
		}
	}
}

// Shuffle visits positions 0..n-2 in order and swaps each with a uniformly
// chosen position at or after it, consuming exactly one Intn per step.
func (r *Seeded) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n-1; i++ {
		j := i + r.Intn(n-i)
		swap(i, j)
	}
}
