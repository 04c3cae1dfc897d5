package app

import (
	"context"
	"time"

	"sigsim/domain/core"
	"sigsim/domain/sim"
	"sigsim/internal"
	"sigsim/ports"
)

// SimulationService is the entry point used by the CLI and the HTTP API
type SimulationService struct {
	engine *SimulationEngine
	sweep  *PowerSweep
	logger *internal.Logger
}

// ServicePorts bundles the adapters the service is assembled from
type ServicePorts struct {
	RNG       ports.RNGPort
	Sampler   ports.SamplerPort
	Statistic ports.StatisticPort
	Power     ports.PowerPort
}

// NewSimulationService wires the engine and sweep over the given adapters
func NewSimulationService(p ServicePorts, logger *internal.Logger) *SimulationService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	engine := NewSimulationEngine(p.RNG, p.Sampler, p.Statistic, logger)
	return &SimulationService{
		engine: engine,
		sweep:  NewPowerSweep(engine, p.RNG, p.Power),
		logger: logger,
	}
}

// Simulate runs one simulation and attaches run provenance
func (s *SimulationService) Simulate(ctx context.Context, cfg sim.SimulationConfig) (*sim.RunReport, error) {
	runID := core.NewRunID()
	started := core.Now()
	clock := time.Now()

	result, err := s.engine.Run(ctx, cfg)
	if err != nil {
		s.logFailure("run "+runID.String(), err)
		return nil, err
	}

	report := &sim.RunReport{
		RunID:     runID,
		StartedAt: started,
		Elapsed:   time.Since(clock),
		Result:    result,
	}
	s.logger.Info("run %s: %s rejected %d/%d (%.4f) seed=%d config=%s in %v",
		runID, result.Config.TestFamily, result.RejectedCount, result.TrialCount,
		result.RejectionRate, *result.Config.Seed, result.ConfigHash.Short(), report.Elapsed)
	return report, nil
}

// Sweep runs a power sweep over effects
func (s *SimulationService) Sweep(ctx context.Context, cfg sim.SimulationConfig, effects []float64) (*sim.SweepResult, error) {
	result, err := s.sweep.Sweep(ctx, cfg, effects)
	if err != nil {
		s.logFailure("sweep", err)
		return nil, err
	}
	s.logger.Info("sweep %s: %d effect sizes in %v", result.RunID, len(result.Points), result.Elapsed)
	return result, nil
}

// logFailure logs rejected scenarios at Warn and anything else at Error
func (s *SimulationService) logFailure(what string, err error) {
	if core.IsSimulationError(err) {
		s.logger.Warn("%s rejected: %v", what, err)
		return
	}
	s.logger.Error("%s failed: %v", what, err)
}

// Families lists the supported test families
func (s *SimulationService) Families() []sim.TestFamily {
	return sim.TestFamilies()
}
