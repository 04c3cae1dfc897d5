package ports

import (
	"math/rand/v2"
)

// RNGPort partitions a run's logical random stream into per-trial streams
type RNGPort interface {
	// TrialStream returns the deterministic source for one trial of a run.
	// Distinct trial indices under the same seed never share draws, so trials
	// can run in any order or in parallel and still reproduce exactly.
	TrialStream(seed uint64, trialIndex int) rand.Source

	// ProcessSeed returns a fresh seed for runs configured without one
	ProcessSeed() uint64
}
