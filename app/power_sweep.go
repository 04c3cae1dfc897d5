package app

import (
	"context"
	"fmt"
	"time"

	"sigsim/domain/core"
	"sigsim/domain/sim"
	"sigsim/ports"
)

// PowerSweep runs one simulation per effect size to trace a power curve
type PowerSweep struct {
	engine    *SimulationEngine
	rngPort   ports.RNGPort
	powerPort ports.PowerPort
}

// NewPowerSweep creates a power sweep. powerPort may be nil, in which case
// no approximate power is reported.
func NewPowerSweep(engine *SimulationEngine, rngPort ports.RNGPort, powerPort ports.PowerPort) *PowerSweep {
	return &PowerSweep{
		engine:    engine,
		rngPort:   rngPort,
		powerPort: powerPort,
	}
}

// Sweep runs cfg once per entry of effects, overriding EffectSize. Every point
// shares one seed, so the curve is reproducible as a whole. All points are
// validated before any trial runs.
func (s *PowerSweep) Sweep(ctx context.Context, cfg sim.SimulationConfig, effects []float64) (*sim.SweepResult, error) {
	if len(effects) == 0 {
		return nil, core.NewInvalidParameterError("effects", "at least one effect size is required")
	}

	base := cfg.WithDefaults()
	if base.Seed == nil {
		seed := s.rngPort.ProcessSeed()
		base.Seed = &seed
	}

	configs := make([]sim.SimulationConfig, len(effects))
	for i, effect := range effects {
		c := base.Clone()
		c.EffectSize = effect
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("effects[%d]: %w", i, err)
		}
		configs[i] = c
	}

	started := core.Now()
	clock := time.Now()
	points := make([]sim.SweepPoint, 0, len(configs))
	for _, c := range configs {
		result, err := s.engine.Run(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("effect %g: %w", c.EffectSize, err)
		}
		point := sim.SweepPoint{EffectSize: c.EffectSize, Result: result}
		if s.powerPort != nil {
			if p, ok := s.powerPort.ApproxPower(c); ok {
				point.ApproxPower = &p
			}
		}
		points = append(points, point)
	}

	return &sim.SweepResult{
		RunID:     core.NewRunID(),
		StartedAt: started,
		Elapsed:   time.Since(clock),
		Points:    points,
	}, nil
}
