package sim

import (
	"fmt"

	"sigsim/domain/core"
)

// TestFamily selects the significance test applied to each trial
type TestFamily string

const (
	TestOneSampleT         TestFamily = "one_sample_t"
	TestStudentT           TestFamily = "student_t"
	TestWelchT             TestFamily = "welch_t"
	TestPairedT            TestFamily = "paired_t"
	TestMannWhitneyU       TestFamily = "mann_whitney_u"
	TestWilcoxonSignedRank TestFamily = "wilcoxon_signed_rank"
	TestBrunnerMunzel      TestFamily = "brunner_munzel"
	TestOneProportionZ     TestFamily = "one_proportion_z"
	TestTwoProportionZ     TestFamily = "two_proportion_z"
)

// TestFamilies returns every supported family in a stable order
func TestFamilies() []TestFamily {
	return []TestFamily{
		TestOneSampleT,
		TestStudentT,
		TestWelchT,
		TestPairedT,
		TestMannWhitneyU,
		TestWilcoxonSignedRank,
		TestBrunnerMunzel,
		TestOneProportionZ,
		TestTwoProportionZ,
	}
}

// ParseTestFamily converts a user-supplied name to a TestFamily
func ParseTestFamily(s string) (TestFamily, error) {
	for _, f := range TestFamilies() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", core.NewInvalidParameterError("test_family", fmt.Sprintf("unsupported test %q", s))
}

// GroupCount returns how many sample groups the family consumes
func (f TestFamily) GroupCount() int {
	switch f {
	case TestOneSampleT, TestOneProportionZ:
		return 1
	default:
		return 2
	}
}

// MinGroupSize is the smallest per-group sample the statistic is defined for
func (f TestFamily) MinGroupSize() int {
	switch f {
	case TestOneSampleT, TestStudentT, TestWelchT, TestPairedT, TestBrunnerMunzel:
		return 2
	default:
		return 1
	}
}

// Paired reports whether the groups are matched observation by observation
func (f TestFamily) Paired() bool {
	return f == TestPairedT || f == TestWilcoxonSignedRank
}

// Proportion reports whether the family tests Bernoulli proportions
func (f TestFamily) Proportion() bool {
	return f == TestOneProportionZ || f == TestTwoProportionZ
}

// UsesNullValue reports whether NullValue enters the statistic
func (f TestFamily) UsesNullValue() bool {
	return f == TestOneSampleT || f == TestOneProportionZ
}

// Description returns a human-readable name
func (f TestFamily) Description() string {
	switch f {
	case TestOneSampleT:
		return "One-sample t-test"
	case TestStudentT:
		return "Student's t-test (pooled variance)"
	case TestWelchT:
		return "Welch's t-test (unequal variances)"
	case TestPairedT:
		return "Paired t-test"
	case TestMannWhitneyU:
		return "Mann-Whitney U test"
	case TestWilcoxonSignedRank:
		return "Wilcoxon signed-rank test"
	case TestBrunnerMunzel:
		return "Brunner-Munzel test"
	case TestOneProportionZ:
		return "One-proportion z-test"
	case TestTwoProportionZ:
		return "Two-proportion z-test (pooled)"
	default:
		return string(f)
	}
}

// Alternative is the direction of the alternative hypothesis, X relative to Y
// (or to NullValue for one-sample families)
type Alternative string

const (
	AlternativeTwoSided Alternative = "two-sided"
	AlternativeLess     Alternative = "less"
	AlternativeGreater  Alternative = "greater"
)

// ParseAlternative converts a user-supplied name; empty means two-sided
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(s) {
	case "", AlternativeTwoSided:
		return AlternativeTwoSided, nil
	case AlternativeLess, AlternativeGreater:
		return Alternative(s), nil
	}
	return "", core.NewInvalidParameterError("alternative", fmt.Sprintf("unsupported alternative %q", s))
}

// Procedure describes what happens after a first attempt fails to reject
type Procedure string

const (
	// ProcedureBasic runs exactly one test per trial
	ProcedureBasic Procedure = "basic"
	// ProcedureRetest draws fresh samples once more and keeps the second p-value
	ProcedureRetest Procedure = "retest"
	// ProcedureAddSample redraws every group at AddSampleRatio times its size and retests
	ProcedureAddSample Procedure = "add_sample"
)

// ParseProcedure converts a user-supplied name; empty means basic
func ParseProcedure(s string) (Procedure, error) {
	switch Procedure(s) {
	case "", ProcedureBasic:
		return ProcedureBasic, nil
	case ProcedureRetest, ProcedureAddSample:
		return Procedure(s), nil
	}
	return "", core.NewInvalidParameterError("procedure", fmt.Sprintf("unsupported procedure %q", s))
}

// DegeneratePolicy decides what a degenerate trial does to the run
type DegeneratePolicy string

const (
	// DegenerateFail aborts the run with ErrDegenerateSample
	DegenerateFail DegeneratePolicy = "fail"
	// DegenerateCount records the trial as fail-to-reject with p = 1
	DegenerateCount DegeneratePolicy = "count"
)

// ParseDegeneratePolicy converts a user-supplied name; empty means fail
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(s) {
	case "", DegenerateFail:
		return DegenerateFail, nil
	case DegenerateCount:
		return DegenerateCount, nil
	}
	return "", core.NewInvalidParameterError("degenerate_policy", fmt.Sprintf("unsupported policy %q", s))
}
