// Package random provides seed generation and seeded PRNG construction.
//
// Game randomness (imposter shuffle, word draw, starting player) runs on a
// *rand.Rand so tests can substitute a fixed seed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Resolve returns seed, or a fresh crypto seed when seed is 0.
func Resolve(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return NewSeed()
}

// Derive returns an independent generator seeded from parent, so a fixed
// master seed reproduces every component's sequence.
// Neither generator is safe for concurrent use.
func Derive(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(parent.Int63()))
}
