// Package randutil derives independent, reproducible random generators so that
// every table owns its own source instead of sharing a global one.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The same seed always yields the same shuffle sequence.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewUnseeded returns a generator seeded from the wall clock, for interactive play.
func NewUnseeded() *rand.Rand {
	return New(time.Now().UnixNano())
}

// Derive returns the seed for the n-th child of a parent seed. Simulator workers use
// it so that worker k always sees the same stream for a given top-level seed.
func Derive(seed int64, n int) int64 {
	return int64(mix(uint64(seed) + uint64(n+1)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
