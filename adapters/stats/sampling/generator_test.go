package sampling

import (
	"math"
	"math/rand/v2"
	"testing"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Reproducible(t *testing.T) {
	g := NewGenerator()
	spec := sim.Normal(1, 2)

	a, err := g.Generate(spec, 0, 500, rand.NewPCG(1, 2))
	require.NoError(t, err)
	b, err := g.Generate(spec, 0, 500, rand.NewPCG(1, 2))
	require.NoError(t, err)

	assert.Equal(t, a, b, "identical source state must give bit-identical samples")
}

func TestGenerate_AdvancesSource(t *testing.T) {
	g := NewGenerator()
	src := rand.NewPCG(3, 4)

	first, err := g.Generate(sim.Normal(0, 1), 0, 50, src)
	require.NoError(t, err)
	second, err := g.Generate(sim.Normal(0, 1), 0, 50, src)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "sequential calls must not repeat the sub-stream")
}

func TestGenerate_MomentsMatchSpec(t *testing.T) {
	g := NewGenerator()
	const n = 200000

	tests := []struct {
		name  string
		spec  sim.DistributionSpec
		shift float64
	}{
		{"normal", sim.Normal(2, 3), 0},
		{"normal shifted", sim.Normal(0, 1), 0.5},
		{"lognormal", sim.DistributionSpec{Family: sim.DistLogNormal, Params: map[string]float64{"mu": 0, "sigma": 0.5}}, 0},
		{"gamma", sim.DistributionSpec{Family: sim.DistGamma, Params: map[string]float64{"shape": 2, "scale": 3}}, 0},
		{"uniform", sim.DistributionSpec{Family: sim.DistUniform, Params: map[string]float64{"min": -1, "max": 5}}, 1},
		{"bernoulli", sim.Bernoulli(0.3), 0.1},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := g.Generate(tt.spec, tt.shift, n, rand.NewPCG(uint64(i), 99))
			require.NoError(t, err)

			mean, _ := stats.Mean(x)
			sd, _ := stats.StandardDeviationSample(x)

			wantMean := tt.spec.Mean() + tt.shift
			wantSD := tt.spec.StdDev()
			if tt.spec.Discrete() {
				p := tt.spec.Param(sim.ParamP) + tt.shift
				wantSD = math.Sqrt(p * (1 - p))
			}

			// 6 standard errors keeps the check deterministic-seed safe
			tol := 6 * wantSD / math.Sqrt(n)
			assert.InDelta(t, wantMean, mean, tol, "mean")
			assert.InDelta(t, wantSD, sd, 0.02*wantSD+tol, "sd")
		})
	}
}

func TestGenerate_BernoulliDrawsAreBinary(t *testing.T) {
	g := NewGenerator()
	x, err := g.Generate(sim.Bernoulli(0.5), 0, 1000, rand.NewPCG(5, 5))
	require.NoError(t, err)

	for i, v := range x {
		if v != 0 && v != 1 {
			t.Fatalf("draw %d = %v, want 0 or 1", i, v)
		}
	}
}

func TestGenerate_ZeroSigmaIsConstant(t *testing.T) {
	g := NewGenerator()
	x, err := g.Generate(sim.Normal(4, 0), 0, 10, rand.NewPCG(1, 1))
	require.NoError(t, err)
	for _, v := range x {
		assert.Equal(t, 4.0, v)
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	g := NewGenerator()
	src := rand.NewPCG(1, 1)

	tests := []struct {
		name  string
		spec  sim.DistributionSpec
		shift float64
		n     int
	}{
		{"zero size", sim.Normal(0, 1), 0, 0},
		{"unknown family", sim.DistributionSpec{Family: "cauchy"}, 0, 10},
		{"shifted p out of range", sim.Bernoulli(0.9), 0.2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.spec, tt.shift, tt.n, src)
			require.Error(t, err)
			assert.True(t, core.IsInvalidParameter(err), "got %v", err)
		})
	}

	_, err := g.Generate(sim.Normal(0, 1), 0, 5, nil)
	assert.True(t, core.IsInvalidParameter(err), "nil source")
}

func TestGenerate_LeavesParameterDomainsToConfigValidation(t *testing.T) {
	g := NewGenerator()
	spec := sim.DistributionSpec{Family: sim.DistNormal, Params: map[string]float64{"mu": 0, "sigma": 1, "extra": 3}}

	x, err := g.Generate(spec, 0, 4, rand.NewPCG(2, 2))
	require.NoError(t, err, "unknown parameter names are rejected once per run, not per draw")
	assert.Len(t, x, 4)

	cfg := sim.SimulationConfig{
		TestFamily: sim.TestWelchT,
		Groups:     []sim.GroupSpec{{Size: 5, Distribution: spec}, {Size: 5, Distribution: sim.Normal(0, 1)}},
		Alpha:      0.05,
		TrialCount: 10,
	}
	assert.True(t, core.IsInvalidParameter(cfg.WithDefaults().Validate()))
}
