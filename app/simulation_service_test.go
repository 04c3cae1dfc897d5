package app

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"sigsim/adapters/rng"
	"sigsim/adapters/stats/sampling"
	"sigsim/adapters/stats/sigtest"
	"sigsim/domain/core"
	"sigsim/domain/sim"
	"sigsim/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *SimulationService {
	stats := sigtest.NewEngine()
	return NewSimulationService(ServicePorts{
		RNG:       rng.NewStreamAdapter(),
		Sampler:   sampling.NewGenerator(),
		Statistic: stats,
		Power:     stats,
	}, internal.NewLogger(internal.LogLevelError))
}

func TestSimulate_AttachesProvenance(t *testing.T) {
	s := newTestService()
	report, err := s.Simulate(context.Background(), studentConfig(0.5, 200))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.RunID.String(), "run-"))
	assert.False(t, report.StartedAt.IsZero())
	require.NotNil(t, report.Result)
	assert.Equal(t, 200, report.Result.TrialCount)
}

func TestSimulate_RunIDsAreUnique(t *testing.T) {
	s := newTestService()
	a, err := s.Simulate(context.Background(), studentConfig(0, 10))
	require.NoError(t, err)
	b, err := s.Simulate(context.Background(), studentConfig(0, 10))
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Result, b.Result, "same seed, same result")
}

func TestSweep_TracesPowerCurve(t *testing.T) {
	s := newTestService()
	effects := []float64{0, 0.5, 1.0}
	cfg := studentConfig(0, 1000)
	cfg.Groups[0].Size, cfg.Groups[1].Size = 30, 30

	res, err := s.Sweep(context.Background(), cfg, effects)
	require.NoError(t, err)
	require.Len(t, res.Points, len(effects))

	for i, p := range res.Points {
		assert.Equal(t, effects[i], p.EffectSize)
		assert.Equal(t, effects[i], p.Result.Config.EffectSize)
		assert.Equal(t, *cfg.Seed, *p.Result.Config.Seed, "every point shares the seed")
		require.NotNil(t, p.ApproxPower)
		// simulated and analytic power agree within a few points
		assert.InDelta(t, *p.ApproxPower, p.Result.RejectionRate, 0.06, "effect=%g", p.EffectSize)
	}
	assert.Less(t, res.Points[0].Result.RejectionRate, res.Points[2].Result.RejectionRate)
}

func TestSweep_SharedSeedWhenUnset(t *testing.T) {
	s := newTestService()
	cfg := studentConfig(0, 50)
	cfg.Seed = nil

	res, err := s.Sweep(context.Background(), cfg, []float64{0, 0.2})
	require.NoError(t, err)
	assert.Equal(t, *res.Points[0].Result.Config.Seed, *res.Points[1].Result.Config.Seed)
}

func TestSweep_NoApproxPowerForRankTests(t *testing.T) {
	s := newTestService()
	cfg := studentConfig(0, 50)
	cfg.TestFamily = sim.TestMannWhitneyU

	res, err := s.Sweep(context.Background(), cfg, []float64{0.5})
	require.NoError(t, err)
	assert.Nil(t, res.Points[0].ApproxPower)
}

func TestSweep_ValidatesBeforeRunning(t *testing.T) {
	s := newTestService()

	_, err := s.Sweep(context.Background(), studentConfig(0, 10), nil)
	assert.True(t, core.IsInvalidParameter(err))

	cfg := studentConfig(0, 10)
	cfg.TestFamily = sim.TestTwoProportionZ
	cfg.Groups[0].Distribution = sim.Bernoulli(0.5)
	cfg.Groups[1].Distribution = sim.Bernoulli(0.5)
	_, err = s.Sweep(context.Background(), cfg, []float64{0.1, 0.7})
	require.Error(t, err)
	assert.True(t, core.IsInvalidParameter(err), "p + effect above 1 is rejected up front")
	assert.Contains(t, err.Error(), "effects[1]")
}

func TestSimulate_LogsFailuresByKind(t *testing.T) {
	var buf bytes.Buffer
	stats := sigtest.NewEngine()
	s := NewSimulationService(ServicePorts{
		RNG:       rng.NewStreamAdapter(),
		Sampler:   sampling.NewGenerator(),
		Statistic: stats,
		Power:     stats,
	}, internal.NewLoggerTo(internal.LogLevelWarn, log.New(&buf, "", 0)))

	_, err := s.Simulate(context.Background(), studentConfig(0, 0))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "[WARN] run run-")
	assert.Contains(t, buf.String(), "rejected")

	buf.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Simulate(ctx, studentConfig(0, 100))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, buf.String(), "[ERROR] run run-")
}

func TestFamilies_ListsAll(t *testing.T) {
	assert.Len(t, newTestService().Families(), 9)
}
