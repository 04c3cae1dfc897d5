package sigtest

import (
	"math"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"gonum.org/v1/gonum/stat"
)

// oneSampleT tests mean(x) against mu
func oneSampleT(name sim.TestFamily, x []float64, mu float64, alt sim.Alternative) (sim.TestResult, error) {
	if isConstant(x) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(name), "zero sample variance")
	}
	n := float64(len(x))
	mean, variance := stat.MeanVariance(x, nil)
	se := math.Sqrt(variance / n)
	if se == 0 || math.IsNaN(se) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(name), "zero standard error")
	}

	t := (mean - mu) / se
	df := n - 1
	return sim.TestResult{
		Statistic: t,
		PValue:    tailPValue(studentsT(df), t, alt),
		DF:        df,
	}, nil
}

// pairedT is a one-sample t-test on the differences x - y
func pairedT(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	return oneSampleT(sim.TestPairedT, differences(x, y), 0, alt)
}

// studentT is the pooled-variance two-sample t-test
func studentT(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	if isConstant(x) && isConstant(y) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestStudentT), "zero variance in both groups")
	}
	n1, n2 := float64(len(x)), float64(len(y))
	m1, v1 := stat.MeanVariance(x, nil)
	m2, v2 := stat.MeanVariance(y, nil)

	df := n1 + n2 - 2
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if se == 0 || math.IsNaN(se) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestStudentT), "zero pooled standard error")
	}

	t := (m1 - m2) / se
	return sim.TestResult{
		Statistic: t,
		PValue:    tailPValue(studentsT(df), t, alt),
		DF:        df,
	}, nil
}

// welchT is the unequal-variance two-sample t-test with
// Welch-Satterthwaite degrees of freedom
func welchT(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	if isConstant(x) && isConstant(y) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestWelchT), "zero variance in both groups")
	}
	n1, n2 := float64(len(x)), float64(len(y))
	m1, v1 := stat.MeanVariance(x, nil)
	m2, v2 := stat.MeanVariance(y, nil)

	a, b := v1/n1, v2/n2
	se := math.Sqrt(a + b)
	if se == 0 || math.IsNaN(se) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestWelchT), "zero standard error")
	}

	t := (m1 - m2) / se
	df := (a + b) * (a + b) / (a*a/(n1-1) + b*b/(n2-1))
	return sim.TestResult{
		Statistic: t,
		PValue:    tailPValue(studentsT(df), t, alt),
		DF:        df,
	}, nil
}

func differences(x, y []float64) []float64 {
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}
	return d
}

// isConstant reports whether every value equals the first. Rounding in
// MeanVariance can leave a tiny non-zero variance for constant input, so the
// t-tests check this directly.
func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
