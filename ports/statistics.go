package ports

import (
	"math/rand/v2"

	"sigsim/domain/sim"
)

// SamplerPort draws pseudo-random samples from a configured distribution
type SamplerPort interface {
	// Generate draws n values from spec, adding shift to each draw (or to p for
	// Bernoulli). Consuming src advances it deterministically.
	Generate(spec sim.DistributionSpec, shift float64, n int, src rand.Source) ([]float64, error)
}

// StatisticPort computes a test statistic and p-value for one trial's samples
type StatisticPort interface {
	Compute(family sim.TestFamily, alternative sim.Alternative, nullValue float64, groups [][]float64) (sim.TestResult, error)
}

// PowerPort gives the closed-form approximate power of a configuration, when one exists
type PowerPort interface {
	ApproxPower(cfg sim.SimulationConfig) (power float64, ok bool)
}
