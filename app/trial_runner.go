package app

import (
	"context"
	"math/rand/v2"

	"sigsim/domain/core"
	"sigsim/domain/sim"
	"sigsim/ports"
)

// TrialRunner executes one draw-and-test cycle
type TrialRunner struct {
	sampler   ports.SamplerPort
	statistic ports.StatisticPort
}

// NewTrialRunner creates a new trial runner
func NewTrialRunner(sampler ports.SamplerPort, statistic ports.StatisticPort) *TrialRunner {
	return &TrialRunner{
		sampler:   sampler,
		statistic: statistic,
	}
}

// attempt is one sample-and-test pass within a trial
type attempt struct {
	result     sim.TestResult
	samples    [][]float64
	degenerate bool
}

// RunTrial draws one sample per group from src, computes the statistic and
// decides. Under the retest and add_sample procedures a non-rejecting first
// attempt is followed by exactly one more, drawn from the same src, and the
// second p-value counts. cfg must already be validated.
func (r *TrialRunner) RunTrial(ctx context.Context, cfg sim.SimulationConfig, index int, src rand.Source) (sim.Trial, error) {
	if err := ctx.Err(); err != nil {
		return sim.Trial{}, err
	}

	sizes := cfg.SampleSizes()
	a, err := r.attempt(cfg, sizes, src)
	if err != nil {
		return sim.Trial{}, err
	}
	attempts := 1

	if !sim.Decide(a.result.PValue, cfg.Alpha) && cfg.Procedure != sim.ProcedureBasic && cfg.Procedure != "" {
		if cfg.Procedure == sim.ProcedureAddSample {
			sizes = scaledSizes(sizes, cfg.AddSampleRatio)
		}
		a, err = r.attempt(cfg, sizes, src)
		if err != nil {
			return sim.Trial{}, err
		}
		attempts = 2
	}

	trial := sim.Trial{
		Index:      index,
		Statistic:  a.result.Statistic,
		PValue:     a.result.PValue,
		Rejected:   sim.Decide(a.result.PValue, cfg.Alpha),
		Attempts:   attempts,
		Degenerate: a.degenerate,
	}
	if cfg.RetainTrials {
		trial.Samples = a.samples
	}
	return trial, nil
}

func (r *TrialRunner) attempt(cfg sim.SimulationConfig, sizes []int, src rand.Source) (attempt, error) {
	samples := make([][]float64, len(cfg.Groups))
	for i, g := range cfg.Groups {
		shift := 0.0
		if i == 0 {
			shift = cfg.EffectSize
		}
		x, err := r.sampler.Generate(g.Distribution, shift, sizes[i], src)
		if err != nil {
			return attempt{}, err
		}
		samples[i] = x
	}

	res, err := r.statistic.Compute(cfg.TestFamily, cfg.Alternative, cfg.NullValue, samples)
	if err != nil {
		if cfg.DegeneratePolicy == sim.DegenerateCount && core.IsDegenerateSample(err) {
			// recorded as fail-to-reject
			return attempt{result: sim.TestResult{PValue: 1}, samples: samples, degenerate: true}, nil
		}
		return attempt{}, err
	}
	return attempt{result: res, samples: samples}, nil
}

// scaledSizes returns floor(ratio * size) for each group
func scaledSizes(sizes []int, ratio float64) []int {
	out := make([]int, len(sizes))
	for i, n := range sizes {
		out[i] = int(ratio * float64(n))
	}
	return out
}
