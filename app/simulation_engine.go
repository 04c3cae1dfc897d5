package app

import (
	"context"
	"runtime"
	"time"

	"sigsim/domain/sim"
	"sigsim/internal"
	"sigsim/ports"

	"golang.org/x/sync/errgroup"
)

// SimulationEngine runs the configured number of independent trials and
// aggregates them
type SimulationEngine struct {
	rngPort    ports.RNGPort
	runner     *TrialRunner
	aggregator *ResultAggregator
	logger     *internal.Logger
}

// NewSimulationEngine creates a simulation engine
func NewSimulationEngine(rngPort ports.RNGPort, sampler ports.SamplerPort, statistic ports.StatisticPort, logger *internal.Logger) *SimulationEngine {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &SimulationEngine{
		rngPort:    rngPort,
		runner:     NewTrialRunner(sampler, statistic),
		aggregator: NewResultAggregator(),
		logger:     logger,
	}
}

// Run validates cfg, executes cfg.TrialCount trials and returns the aggregate.
// Trial i always draws from the stream for (seed, i), so the result is
// bit-identical for a given seed whatever cfg.Workers is. The first trial
// error cancels the remaining trials and is returned unchanged.
func (e *SimulationEngine) Run(ctx context.Context, cfg sim.SimulationConfig) (*sim.AggregateResult, error) {
	cfg = cfg.WithDefaults().Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := e.resolveSeed(cfg)
	cfg.Seed = &seed
	workers := workerCount(cfg.Workers, cfg.TrialCount)
	// recorded config must not depend on parallelism
	cfg.Workers = 0

	e.logger.Debug("simulation start: test=%s trials=%d seed=%d workers=%d", cfg.TestFamily, cfg.TrialCount, seed, workers)
	start := time.Now()

	trials, err := e.runTrials(ctx, cfg, seed, workers)
	if err != nil {
		e.logger.Debug("simulation aborted after %v: %v", time.Since(start), err)
		return nil, err
	}

	result, err := e.aggregator.Aggregate(trials, cfg)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("simulation done: test=%s rejection_rate=%.4f elapsed=%v", cfg.TestFamily, result.RejectionRate, time.Since(start))
	return result, nil
}

// runTrials splits the index range into one contiguous chunk per worker.
// Each worker writes only its own slots, so no locking is needed.
func (e *SimulationEngine) runTrials(ctx context.Context, cfg sim.SimulationConfig, seed uint64, workers int) ([]sim.Trial, error) {
	n := cfg.TrialCount
	trials := make([]sim.Trial, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				trial, err := e.runner.RunTrial(gctx, cfg, i, e.rngPort.TrialStream(seed, i))
				if err != nil {
					return err
				}
				trials[i] = trial
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trials, nil
}

func (e *SimulationEngine) resolveSeed(cfg sim.SimulationConfig) uint64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	return e.rngPort.ProcessSeed()
}

func workerCount(requested, trials int) int {
	w := requested
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > trials {
		w = trials
	}
	return w
}
