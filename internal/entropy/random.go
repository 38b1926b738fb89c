// Package entropy provides the pseudo-random source injected into every
// stochastic system (births, deaths, departures, market shocks).
// Falls back to crypto/rand only for choosing a seed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"

	"lukechampine.com/blake3"
)

// Source is the randomness the simulation draws from. *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// New returns a seeded source. A zero seed is replaced by a crypto-random one.
func New(seed int64) *mrand.Rand {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return mrand.New(mrand.NewSource(seed))
}

// Reserved streams. Non-negative streams are simulation days.
const (
	StreamTerrain  int64 = -1
	StreamFounding int64 = -2
)

// Derive returns an independent source for a stream of the run seed so that
// adding draws in one system does not shift the sequence seen by another.
func Derive(seed int64, stream int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(Mix(seed, stream)))
}

// Mix hashes seed and stream into a single source seed with BLAKE3, so
// nearby seeds and streams never share a shifted sequence.
func Mix(seed int64, stream int64) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(stream))
	sum := blake3.Sum256(buf[:])
	return int64(binary.LittleEndian.Uint64(sum[:8]) >> 1)
}

// CryptoSeed generates a non-zero seed using crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Uniform returns a float in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Gauss returns a normal sample with the given mean and standard deviation.
func Gauss(src Source, mean, stddev float64) float64 {
	return mean + src.NormFloat64()*stddev
}

// Chance reports whether a roll in [0, 1) falls below p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// IntBetween returns an int in [lo, hi] inclusive.
func IntBetween(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Sign returns -1 or +1 with equal probability.
func Sign(src Source) float64 {
	if src.Intn(2) == 0 {
		return -1
	}
	return 1
}
