package sim

import (
	"math"
	"testing"

	"sigsim/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func welchConfig() SimulationConfig {
	return SimulationConfig{
		TestFamily: TestWelchT,
		Groups: []GroupSpec{
			{Size: 20, Distribution: Normal(0, 1)},
			{Size: 25, Distribution: Normal(0, 2)},
		},
		Alpha:      0.05,
		TrialCount: 100,
	}
}

func TestValidate_AcceptsWellFormedConfigs(t *testing.T) {
	seed := uint64(7)
	configs := map[string]SimulationConfig{
		"welch": welchConfig(),
		"one sample": {
			TestFamily: TestOneSampleT,
			Groups:     []GroupSpec{{Size: 10, Distribution: DistributionSpec{Family: DistGamma, Params: map[string]float64{"shape": 2}}}},
			Alpha:      0.01,
			TrialCount: 1,
			Seed:       &seed,
		},
		"two proportion": {
			TestFamily: TestTwoProportionZ,
			Groups:     []GroupSpec{{Size: 50, Distribution: Bernoulli(0.3)}, {Size: 50, Distribution: Bernoulli(0.3)}},
			EffectSize: 0.2,
			Alpha:      0.05,
			TrialCount: 10,
		},
		"paired add sample": {
			TestFamily:  TestPairedT,
			Alternative: AlternativeGreater,
			Groups:      []GroupSpec{{Size: 8, Distribution: Normal(0, 1)}, {Size: 8, Distribution: Normal(0, 1)}},
			Alpha:       0.05,
			TrialCount:  10,
			Procedure:   ProcedureAddSample,
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, cfg.Validate())
			assert.NoError(t, cfg.WithDefaults().Validate())
		})
	}
}

func TestValidate_RejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
	}{
		{"alpha zero", func(c *SimulationConfig) { c.Alpha = 0 }},
		{"alpha one", func(c *SimulationConfig) { c.Alpha = 1 }},
		{"unknown test", func(c *SimulationConfig) { c.TestFamily = "anova" }},
		{"unknown alternative", func(c *SimulationConfig) { c.Alternative = "sideways" }},
		{"negative sigma", func(c *SimulationConfig) { c.Groups[0].Distribution = Normal(0, -1) }},
		{"unknown param", func(c *SimulationConfig) { c.Groups[1].Distribution.Params["lambda"] = 2 }},
		{"group count", func(c *SimulationConfig) { c.Groups = c.Groups[:1] }},
		{"size below variance minimum", func(c *SimulationConfig) { c.Groups[0].Size = 1 }},
		{"zero size", func(c *SimulationConfig) { c.Groups[1].Size = 0 }},
		{"bernoulli under t-test", func(c *SimulationConfig) { c.Groups[1].Distribution = Bernoulli(0.5) }},
		{"infinite effect", func(c *SimulationConfig) { c.EffectSize = math.Inf(1) }},
		{"confidence level", func(c *SimulationConfig) { c.ConfidenceLevel = 1.5 }},
		{"add sample ratio", func(c *SimulationConfig) { c.Procedure = ProcedureAddSample; c.AddSampleRatio = 0.5 }},
		{"negative workers", func(c *SimulationConfig) { c.Workers = -1 }},
		{"gamma shape", func(c *SimulationConfig) {
			c.Groups[0].Distribution = DistributionSpec{Family: DistGamma, Params: map[string]float64{"shape": 0}}
		}},
		{"uniform bounds", func(c *SimulationConfig) {
			c.Groups[0].Distribution = DistributionSpec{Family: DistUniform, Params: map[string]float64{"min": 2, "max": 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := welchConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, core.IsInvalidParameter(err), "expected invalid parameter, got %v", err)
		})
	}
}

func TestValidate_ZeroTrialsIsEmptyResult(t *testing.T) {
	cfg := welchConfig()
	cfg.TrialCount = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, core.IsEmptyResult(err))
	assert.True(t, core.IsInvalidParameter(err))
}

func TestValidate_FamilySpecificRules(t *testing.T) {
	paired := SimulationConfig{
		TestFamily: TestWilcoxonSignedRank,
		Groups:     []GroupSpec{{Size: 10, Distribution: Normal(0, 1)}, {Size: 11, Distribution: Normal(0, 1)}},
		Alpha:      0.05,
		TrialCount: 10,
	}
	assert.True(t, core.IsInvalidParameter(paired.Validate()), "unequal paired sizes must be rejected")

	oneProp := SimulationConfig{
		TestFamily: TestOneProportionZ,
		Groups:     []GroupSpec{{Size: 30, Distribution: Bernoulli(0.5)}},
		NullValue:  0,
		Alpha:      0.05,
		TrialCount: 10,
	}
	assert.True(t, core.IsInvalidParameter(oneProp.Validate()), "p0 = 0 must be rejected")
	oneProp.NullValue = 0.5
	assert.NoError(t, oneProp.Validate())

	oneProp.EffectSize = 0.6
	assert.True(t, core.IsInvalidParameter(oneProp.Validate()), "p + effect > 1 must be rejected")

	missingP := oneProp
	missingP.EffectSize = 0
	missingP.Groups = []GroupSpec{{Size: 30, Distribution: DistributionSpec{Family: DistBernoulli}}}
	assert.True(t, core.IsInvalidParameter(missingP.Validate()), "bernoulli needs p")
}

func TestWithDefaults_FillsOptionalFields(t *testing.T) {
	cfg := welchConfig().WithDefaults()

	assert.Equal(t, AlternativeTwoSided, cfg.Alternative)
	assert.Equal(t, DefaultConfidenceLevel, cfg.ConfidenceLevel)
	assert.Equal(t, ProcedureBasic, cfg.Procedure)
	assert.Equal(t, DefaultAddSampleRatio, cfg.AddSampleRatio)
	assert.Equal(t, DegenerateFail, cfg.DegeneratePolicy)
	assert.Equal(t, []int{20, 25}, cfg.SampleSizes())
}

func TestClone_IsDeep(t *testing.T) {
	seed := uint64(99)
	cfg := welchConfig()
	cfg.Seed = &seed

	clone := cfg.Clone()
	clone.Groups[0].Size = 1000
	clone.Groups[0].Distribution.Params[ParamSigma] = 42
	*clone.Seed = 1

	assert.Equal(t, 20, cfg.Groups[0].Size)
	assert.Equal(t, 1.0, cfg.Groups[0].Distribution.Param(ParamSigma))
	assert.Equal(t, uint64(99), *cfg.Seed)
}

func TestDistributionMoments(t *testing.T) {
	tests := []struct {
		spec DistributionSpec
		mean float64
		sd   float64
	}{
		{Normal(3, 2), 3, 2},
		{DistributionSpec{Family: DistUniform, Params: map[string]float64{"min": 0, "max": 12}}, 6, 12 / math.Sqrt(12)},
		{DistributionSpec{Family: DistGamma, Params: map[string]float64{"shape": 4, "scale": 0.5}}, 2, 1},
		{Bernoulli(0.25), 0.25, math.Sqrt(0.1875)},
		{DistributionSpec{Family: DistLogNormal}, math.Exp(0.5), math.Sqrt((math.E - 1) * math.E)},
	}

	for _, tt := range tests {
		t.Run(tt.spec.String(), func(t *testing.T) {
			assert.InDelta(t, tt.mean, tt.spec.Mean(), 1e-12)
			assert.InDelta(t, tt.sd, tt.spec.StdDev(), 1e-12)
		})
	}
}

func TestDecide_StrictInequality(t *testing.T) {
	assert.True(t, Decide(0.049999, 0.05))
	assert.False(t, Decide(0.05, 0.05), "p == alpha must fail to reject")
	assert.False(t, Decide(0.2, 0.05))
	assert.True(t, Decide(0, 0.01))
	assert.False(t, Decide(1, 0.99))
}
