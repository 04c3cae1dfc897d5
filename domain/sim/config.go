package sim

import (
	"fmt"
	"math"

	"sigsim/domain/core"
)

// Defaults applied by WithDefaults
const (
	DefaultConfidenceLevel = 0.95
	DefaultAddSampleRatio  = 1.1
)

// GroupSpec is one sample group: its size and population distribution
type GroupSpec struct {
	Size         int              `json:"size" yaml:"size"`
	Distribution DistributionSpec `json:"distribution" yaml:"distribution"`
}

// SimulationConfig fully describes one Monte Carlo run. Treat it as immutable:
// the engine works on a deep copy.
type SimulationConfig struct {
	TestFamily  TestFamily  `json:"test_family"`
	Alternative Alternative `json:"alternative"`

	// Groups[0] is X, the group shifted by EffectSize; Groups[1] is Y when present.
	Groups []GroupSpec `json:"groups"`

	// EffectSize shifts X: additive on every draw for continuous families,
	// additive on p for Bernoulli. Zero models the null hypothesis.
	EffectSize float64 `json:"effect_size"`

	// NullValue is the H0 mean (one_sample_t) or proportion (one_proportion_z).
	NullValue float64 `json:"null_value"`

	Alpha           float64 `json:"alpha"`
	TrialCount      int     `json:"trial_count"`
	Seed            *uint64 `json:"seed,omitempty"`
	ConfidenceLevel float64 `json:"confidence_level"`

	Procedure      Procedure `json:"procedure"`
	AddSampleRatio float64   `json:"add_sample_ratio"`

	DegeneratePolicy DegeneratePolicy `json:"degenerate_policy"`

	// RetainTrials keeps every Trial, samples included, in the result.
	RetainTrials bool `json:"retain_trials"`

	// Workers bounds parallelism; 0 means GOMAXPROCS. Never changes results.
	Workers int `json:"-"`
}

// SampleSizes returns the per-group sample sizes in group order
func (c SimulationConfig) SampleSizes() []int {
	sizes := make([]int, len(c.Groups))
	for i, g := range c.Groups {
		sizes[i] = g.Size
	}
	return sizes
}

// WithDefaults fills zero-valued optional fields
func (c SimulationConfig) WithDefaults() SimulationConfig {
	out := c.Clone()
	if out.Alternative == "" {
		out.Alternative = AlternativeTwoSided
	}
	if out.ConfidenceLevel == 0 {
		out.ConfidenceLevel = DefaultConfidenceLevel
	}
	if out.Procedure == "" {
		out.Procedure = ProcedureBasic
	}
	if out.AddSampleRatio == 0 {
		out.AddSampleRatio = DefaultAddSampleRatio
	}
	if out.DegeneratePolicy == "" {
		out.DegeneratePolicy = DegenerateFail
	}
	return out
}

// Clone returns a deep copy that shares no maps or slices with c
func (c SimulationConfig) Clone() SimulationConfig {
	out := c
	if c.Groups != nil {
		out.Groups = make([]GroupSpec, len(c.Groups))
		for i, g := range c.Groups {
			out.Groups[i] = GroupSpec{Size: g.Size, Distribution: g.Distribution.clone()}
		}
	}
	if c.Seed != nil {
		seed := *c.Seed
		out.Seed = &seed
	}
	return out
}

// Validate checks every configuration invariant once, before any trial runs.
// A TrialCount below one also matches core.ErrEmptyResult.
func (c SimulationConfig) Validate() error {
	if _, err := ParseTestFamily(string(c.TestFamily)); err != nil {
		return err
	}
	if _, err := ParseAlternative(string(c.Alternative)); err != nil {
		return err
	}
	if _, err := ParseProcedure(string(c.Procedure)); err != nil {
		return err
	}
	if _, err := ParseDegeneratePolicy(string(c.DegeneratePolicy)); err != nil {
		return err
	}

	if !(c.Alpha > 0 && c.Alpha < 1) {
		return core.NewInvalidParameterError("alpha", fmt.Sprintf("%g not in (0,1)", c.Alpha))
	}
	if c.TrialCount < 1 {
		return fmt.Errorf("%w: %w: trial_count must be >= 1, got %d",
			core.ErrInvalidParameter, core.ErrEmptyResult, c.TrialCount)
	}
	if c.ConfidenceLevel != 0 && !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		return core.NewInvalidParameterError("confidence_level", fmt.Sprintf("%g not in (0,1)", c.ConfidenceLevel))
	}
	if c.Procedure == ProcedureAddSample && c.AddSampleRatio != 0 && c.AddSampleRatio < 1 {
		return core.NewInvalidParameterError("add_sample_ratio", "must be >= 1")
	}
	if c.Workers < 0 {
		return core.NewInvalidParameterError("workers", "must be >= 0")
	}
	if math.IsNaN(c.EffectSize) || math.IsInf(c.EffectSize, 0) {
		return core.NewInvalidParameterError("effect_size", "must be finite")
	}
	if math.IsNaN(c.NullValue) || math.IsInf(c.NullValue, 0) {
		return core.NewInvalidParameterError("null_value", "must be finite")
	}

	return c.validateGroups()
}

func (c SimulationConfig) validateGroups() error {
	family := c.TestFamily
	if len(c.Groups) != family.GroupCount() {
		return core.NewInvalidParameterError("groups",
			fmt.Sprintf("%s needs %d group(s), got %d", family, family.GroupCount(), len(c.Groups)))
	}

	for i, g := range c.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if g.Size < 1 {
			return core.NewInvalidParameterError(field+".size", "must be >= 1")
		}
		if g.Size < family.MinGroupSize() {
			return core.NewInvalidParameterError(field+".size",
				fmt.Sprintf("%s needs at least %d observations per group", family, family.MinGroupSize()))
		}

		shift := 0.0
		if i == 0 {
			shift = c.EffectSize
		}
		if err := g.Distribution.Validate(shift); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}

		if family.Proportion() && !g.Distribution.Discrete() {
			return core.NewInvalidParameterError(field+".distribution", fmt.Sprintf("%s needs bernoulli groups", family))
		}
		if !family.Proportion() && g.Distribution.Discrete() {
			return core.NewInvalidParameterError(field+".distribution", fmt.Sprintf("%s needs continuous groups", family))
		}
	}

	if family.Paired() && c.Groups[0].Size != c.Groups[1].Size {
		return core.NewInvalidParameterError("groups", fmt.Sprintf("%s needs equal group sizes", family))
	}

	if family == TestOneProportionZ && !(c.NullValue > 0 && c.NullValue < 1) {
		return core.NewInvalidParameterError("null_value", "one_proportion_z needs p0 in (0,1)")
	}
	return nil
}
