package app

import (
	"context"
	"math"
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

func newTestEngine() *SimulationEngine {
	return NewSimulationEngine(rng.NewStreamAdapter(), sampling.NewGenerator(), sigtest.NewEngine(), internal.NewLogger(internal.LogLevelError))
}

func seeded(seed uint64) *uint64 { return &seed }

func studentConfig(effect float64, trials int) sim.SimulationConfig {
	return sim.SimulationConfig{
		TestFamily: sim.TestStudentT,
		Groups: []sim.GroupSpec{
			{Size: 10, Distribution: sim.Normal(0, 1)},
			{Size: 10, Distribution: sim.Normal(0, 1)},
		},
		EffectSize: effect,
		Alpha:      0.05,
		TrialCount: trials,
		Seed:       seeded(20240611),
	}
}

func TestRun_ReproducibleAcrossWorkerCounts(t *testing.T) {
	e := newTestEngine()
	cfg := studentConfig(0.3, 500)
	cfg.RetainTrials = true

	var reference *sim.AggregateResult
	for _, workers := range []int{1, 2, 3, 8, 64} {
		cfg.Workers = workers
		res, err := e.Run(context.Background(), cfg)
		require.NoError(t, err, "workers=%d", workers)
		if reference == nil {
			reference = res
			continue
		}
		assert.Equal(t, reference, res, "workers=%d must not change the result", workers)
	}
}

func TestRun_SeedControlsOutcome(t *testing.T) {
	e := newTestEngine()
	a, err := e.Run(context.Background(), studentConfig(0.5, 300))
	require.NoError(t, err)

	cfg := studentConfig(0.5, 300)
	cfg.Seed = seeded(1)
	b, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.PValueSummary, b.PValueSummary)
	assert.NotEqual(t, a.ConfigHash, b.ConfigHash)
}

func TestRun_ResolvedSeedReplays(t *testing.T) {
	e := newTestEngine()
	cfg := studentConfig(0.2, 200)
	cfg.Seed = nil

	first, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, first.Config.Seed, "the seed actually used is recorded")

	second, err := e.Run(context.Background(), first.Config)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	cfg := studentConfig(0, 10)
	cfg.Seed = nil
	before := cfg.Clone()

	_, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, before, cfg)
}

func TestRun_InvariantsHold(t *testing.T) {
	e := newTestEngine()
	res, err := e.Run(context.Background(), studentConfig(0.4, 1000))
	require.NoError(t, err)

	assert.Equal(t, 1000, res.TrialCount)
	assert.Equal(t, float64(res.RejectedCount)/1000, res.RejectionRate)
	assert.True(t, res.ConfidenceInterval.Contains(res.RejectionRate))
	assert.GreaterOrEqual(t, res.ConfidenceInterval.Lower, 0.0)
	assert.LessOrEqual(t, res.ConfidenceInterval.Upper, 1.0)

	total := 0
	for _, c := range res.PValueHistogram.Counts {
		total += c
	}
	assert.Equal(t, 1000, total)
	assert.Nil(t, res.Trials)
}

func TestRun_NullCalibration(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-trial calibration run")
	}
	e := newTestEngine()
	res, err := e.Run(context.Background(), studentConfig(0, 100000))
	require.NoError(t, err)

	// five binomial standard errors around alpha
	se := math.Sqrt(0.05 * 0.95 / 100000)
	assert.InDelta(t, 0.05, res.RejectionRate, 5*se)
	assert.InDelta(t, 0.5, res.PValueSummary.Mean, 0.01, "null p-values are uniform")
}

func TestRun_PowerIncreasesWithEffect(t *testing.T) {
	e := newTestEngine()
	prev := -1.0
	for _, effect := range []float64{0, 0.3, 0.6, 1.0, 1.5} {
		res, err := e.Run(context.Background(), studentConfig(effect, 2000))
		require.NoError(t, err)
		assert.Greater(t, res.RejectionRate, prev, "effect=%g", effect)
		prev = res.RejectionRate
	}
	assert.Greater(t, prev, 0.8)
}

func TestRun_FollowUpProceduresInflateTypeIError(t *testing.T) {
	e := newTestEngine()
	for _, procedure := range []sim.Procedure{sim.ProcedureRetest, sim.ProcedureAddSample} {
		cfg := studentConfig(0, 20000)
		cfg.Procedure = procedure
		res, err := e.Run(context.Background(), cfg)
		require.NoError(t, err)
		// two chances at 5% give about 9.75%
		assert.Greater(t, res.RejectionRate, 0.08, "procedure=%s", procedure)
		assert.Greater(t, res.ConfidenceInterval.Lower, 0.05, "procedure=%s", procedure)
	}
}

func TestRun_DegenerateFailsFast(t *testing.T) {
	e := newTestEngine()
	cfg := studentConfig(0, 1000)
	cfg.Groups[0].Distribution = sim.Normal(1, 0)
	cfg.Groups[1].Distribution = sim.Normal(1, 0)

	res, err := e.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, core.IsDegenerateSample(err))
}

func TestRun_DegenerateCounted(t *testing.T) {
	e := newTestEngine()
	cfg := studentConfig(0, 50)
	cfg.Groups[0].Distribution = sim.Normal(1, 0)
	cfg.Groups[1].Distribution = sim.Normal(1, 0)
	cfg.DegeneratePolicy = sim.DegenerateCount

	res, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 50, res.DegenerateCount)
	assert.Equal(t, 0, res.RejectedCount)
}

func TestRun_InvalidConfig(t *testing.T) {
	e := newTestEngine()

	cfg := studentConfig(0, 10)
	cfg.Alpha = 1.5
	_, err := e.Run(context.Background(), cfg)
	assert.True(t, core.IsInvalidParameter(err))

	cfg = studentConfig(0, 0)
	_, err = e.Run(context.Background(), cfg)
	assert.True(t, core.IsInvalidParameter(err))
	assert.True(t, core.IsEmptyResult(err))
}

func TestRun_HonoursCancellation(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, studentConfig(0, 1000))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 4, workerCount(4, 100))
	assert.Equal(t, 3, workerCount(16, 3))
	assert.GreaterOrEqual(t, workerCount(0, 1000), 1)
}
