package sigtest

import (
	"math"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"gonum.org/v1/gonum/stat/distuv"
)

// oneProportionZ tests the success rate of x against p0, using the null
// standard error
func oneProportionZ(x []float64, p0 float64, alt sim.Alternative) (sim.TestResult, error) {
	if p0 <= 0 || p0 >= 1 {
		return sim.TestResult{}, core.NewInvalidParameterError("null_value", "must be in (0, 1) for one_proportion_z")
	}
	n := float64(len(x))
	phat := successes(x) / n
	se := math.Sqrt(p0 * (1 - p0) / n)

	z := (phat - p0) / se
	return sim.TestResult{
		Statistic: z,
		PValue:    tailPValue(distuv.UnitNormal, z, alt),
	}, nil
}

// twoProportionZ compares the success rates of x and y with a pooled
// standard error
func twoProportionZ(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	n1, n2 := float64(len(x)), float64(len(y))
	k1, k2 := successes(x), successes(y)
	pooled := (k1 + k2) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 || math.IsNaN(se) {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestTwoProportionZ), "pooled proportion is 0 or 1")
	}

	z := (k1/n1 - k2/n2) / se
	return sim.TestResult{
		Statistic: z,
		PValue:    tailPValue(distuv.UnitNormal, z, alt),
	}, nil
}

func successes(x []float64) float64 {
	var k float64
	for _, v := range x {
		k += v
	}
	return k
}
