// Package rng provides the deterministic random source used by the ledger
// generator.
//
// Each draw hashes the decimal string form of the current state with MD5 and
// keeps the first eight bytes as the next state. The same seed always yields
// the same sequence, so callers must consume values in a fixed order to get
// reproducible output. A Source is not safe for concurrent use.
package rng

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"strconv"
)

// modulus bounds every value returned by Next.
const modulus = 1 << 31

// Source is a seeded, hash-mixing pseudo-random source.
type Source struct {
	state uint64
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{state: uint64(seed)}
}

// Next advances the state and returns a value in [0, 2^31).
func (s *Source) Next() int {
	sum := md5.Sum([]byte(strconv.FormatUint(s.state, 10)))
	s.state = binary.BigEndian.Uint64(sum[:8])
	return int(s.state % modulus)
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Next()) / modulus
}

// IntRange returns a value in [lo, hi], inclusive at both ends.
func (s *Source) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.Next()%(hi-lo+1)
}

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Float64()
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.Float64() < p
}

// Gauss returns a normally distributed value using the Box-Muller transform.
func (s *Source) Gauss(mu, sigma float64) float64 {
	u1 := math.Max(s.Float64(), 1e-10)
	u2 := s.Float64()
	z := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	return mu + sigma*z
}

// Choice returns one element of items. items must not be empty.
func Choice[T any](s *Source, items []T) T {
	return items[s.IntRange(0, len(items)-1)]
}

// Sample returns k distinct elements of items, drawn without replacement.
// k is capped at len(items).
func Sample[T any](s *Source, items []T, k int) []T {
	pool := make([]T, len(items))
	copy(pool, items)
	if k > len(pool) {
		k = len(pool)
	}

	result := make([]T, 0, k)
	for i := 0; i < k; i++ {
		idx := s.IntRange(0, len(pool)-1)
		result = append(result, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return result
}
