// Package sigtest computes test statistics and p-values for every supported
// significance test family.
package sigtest

import (
	"fmt"
	"math"

	"sigsim/domain/core"
	"sigsim/domain/sim"
)

// Engine implements ports.StatisticPort
type Engine struct{}

// NewEngine creates a new statistic engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compute runs family's test on groups. Groups[0] is X; Groups[1], when the
// family takes two groups, is Y. Directional alternatives refer to X relative
// to Y, or to nullValue for one-sample families.
func (e *Engine) Compute(family sim.TestFamily, alternative sim.Alternative, nullValue float64, groups [][]float64) (sim.TestResult, error) {
	if err := checkGroups(family, groups); err != nil {
		return sim.TestResult{}, err
	}
	if alternative == "" {
		alternative = sim.AlternativeTwoSided
	}

	switch family {
	case sim.TestOneSampleT:
		return oneSampleT(family, groups[0], nullValue, alternative)
	case sim.TestStudentT:
		return studentT(groups[0], groups[1], alternative)
	case sim.TestWelchT:
		return welchT(groups[0], groups[1], alternative)
	case sim.TestPairedT:
		return pairedT(groups[0], groups[1], alternative)
	case sim.TestMannWhitneyU:
		return mannWhitneyU(groups[0], groups[1], alternative)
	case sim.TestWilcoxonSignedRank:
		return wilcoxonSignedRank(groups[0], groups[1], alternative)
	case sim.TestBrunnerMunzel:
		return brunnerMunzel(groups[0], groups[1], alternative)
	case sim.TestOneProportionZ:
		return oneProportionZ(groups[0], nullValue, alternative)
	case sim.TestTwoProportionZ:
		return twoProportionZ(groups[0], groups[1], alternative)
	default:
		return sim.TestResult{}, core.NewInvalidParameterError("test_family", fmt.Sprintf("unsupported test %q", family))
	}
}

func checkGroups(family sim.TestFamily, groups [][]float64) error {
	if want := family.GroupCount(); len(groups) != want {
		return core.NewInvalidParameterError("groups", fmt.Sprintf("%s needs %d groups, got %d", family, want, len(groups)))
	}
	for i, g := range groups {
		if len(g) < family.MinGroupSize() {
			return core.NewInvalidParameterError(fmt.Sprintf("groups[%d]", i),
				fmt.Sprintf("%s needs at least %d observations, got %d", family, family.MinGroupSize(), len(g)))
		}
		for _, v := range g {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewInvalidParameterError(fmt.Sprintf("groups[%d]", i), "non-finite observation")
			}
		}
	}
	if family.Paired() && len(groups[0]) != len(groups[1]) {
		return core.NewInvalidParameterError("groups", "paired groups must have equal sizes")
	}
	return nil
}
