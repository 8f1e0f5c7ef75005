// Package minhash computes fixed-width MinHash signatures over shingle sets
// so that Jaccard similarity between two sets can be estimated in constant
// time from their signatures alone.
package minhash

import (
	"math/rand"

	"github.com/galeep/plugin-librarian/pkg/shingle"
)

// DefaultPermutations is the default signature width.
const DefaultPermutations = 128

// fnvOffset and fnvPrime are the 64-bit FNV-1a constants, used as the base
// hash that every permutation salts.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// baseHash computes a 64-bit FNV-1a hash of s salted with a per-permutation
// constant XORed into the FNV offset basis. Salting a single well-distributed
// base hash with P independent salts is a standard way to materialize P
// "independent enough"
// hash functions without storing P separate coefficient tables.
func baseHash(s string, salt uint64) uint64 {
	h := fnvOffset ^ salt
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	// Final avalanche so the salt's influence isn't confined to the high bits.
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}

// Signature is a fixed-length MinHash signature. Two signatures of equal
// length produced from the same Builder are comparable with EstimateJaccard.
type Signature []uint32

// Builder computes signatures with a fixed, reproducible set of P
// permutation salts. The salts are derived from Seed so that identical
// Builder configuration always yields identical signatures for identical
// input — required for byte-identical reports across runs.
type Builder struct {
	P     int
	Seed  int64
	salts []uint64
}

// New creates a Builder with p permutations derived deterministically from
// seed. p <= 0 uses DefaultPermutations.
func New(p int, seed int64) *Builder {
	if p <= 0 {
		p = DefaultPermutations
	}
	b := &Builder{P: p, Seed: seed}
	b.salts = deriveSalts(p, seed)
	return b
}

// deriveSalts produces p odd, non-zero 64-bit salts from a seeded PRNG.
// rand.New(rand.NewSource(seed)) is fully deterministic across Go versions
// for a fixed seed, which is what gives Builder its reproducibility
// guarantee.
func deriveSalts(p int, seed int64) []uint64 {
	rng := rand.New(rand.NewSource(seed))
	salts := make([]uint64, p)
	for i := range salts {
		v := rng.Uint64() | 1 // force odd: avoids degenerate all-even salts
		salts[i] = v
	}
	return salts
}

// Signature computes the MinHash signature of a shingle set. The set must be
// non-empty; an empty set is a precondition violation owned by the caller
// (the shingle package guarantees non-empty output for non-empty input).
func (b *Builder) Signature(set shingle.Set) Signature {
	sig := make(Signature, b.P)
	for i := range sig {
		sig[i] = ^uint32(0)
	}
	for s := range set {
		for i, salt := range b.salts {
			h := uint32(baseHash(s, salt))
			if h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}

// EstimateJaccard estimates the Jaccard similarity of the two shingle sets
// that produced a and b from the fraction of signature positions that agree.
// a and b must have equal length.
func EstimateJaccard(a, b Signature) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}
