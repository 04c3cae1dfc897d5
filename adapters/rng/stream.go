package rng

import (
	"math/rand/v2"
)

const (
	golden = 0x9e3779b97f4a7c15
	// second-word salt so the two PCG seed words are never equal
	streamSalt = 0xda3e39cb94b95bdb
)

// StreamAdapter implements ports.RNGPort with a SplitMix64-derived PCG stream per trial
type StreamAdapter struct{}

// NewStreamAdapter creates a new stream adapter
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

// TrialStream derives the PCG state for (seed, trialIndex).
// base = seed + (trialIndex+1)*golden is injective in trialIndex and splitmix64 is a
// bijection, so every trial of a run gets distinct seed words.
func (a *StreamAdapter) TrialStream(seed uint64, trialIndex int) rand.Source {
	base := seed + (uint64(trialIndex)+1)*golden
	return rand.NewPCG(splitmix64(base), splitmix64(base^streamSalt))
}

// ProcessSeed draws from the runtime's randomly seeded global generator
func (a *StreamAdapter) ProcessSeed() uint64 {
	return rand.Uint64()
}

// splitmix64 is the SplitMix64 output finalizer
func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
