package sigtest

import (
	"math"

	"sigsim/domain/sim"

	"gonum.org/v1/gonum/stat/distuv"
)

// reference is a continuous null distribution of a test statistic
type reference interface {
	CDF(x float64) float64
	Survival(x float64) float64
}

// studentsT returns the standard t reference distribution
func studentsT(df float64) reference {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
}

// tailPValue maps a statistic to a p-value under the alternative.
// greater = P(T >= t), less = P(T <= t), two-sided = 2 P(T >= |t|).
func tailPValue(ref reference, statistic float64, alt sim.Alternative) float64 {
	var p float64
	switch alt {
	case sim.AlternativeGreater:
		p = ref.Survival(statistic)
	case sim.AlternativeLess:
		p = ref.CDF(statistic)
	default:
		p = 2 * ref.Survival(math.Abs(statistic))
	}
	return clampProbability(p)
}

// infinitePValue handles a statistic that diverged because the groups separate
// perfectly: the tail in the statistic's direction has probability zero.
func infinitePValue(statistic float64, alt sim.Alternative) float64 {
	switch alt {
	case sim.AlternativeGreater:
		if statistic > 0 {
			return 0
		}
		return 1
	case sim.AlternativeLess:
		if statistic < 0 {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// discretePValue combines exact one-sided tail probabilities
func discretePValue(pGreater, pLess float64, alt sim.Alternative) float64 {
	switch alt {
	case sim.AlternativeGreater:
		return clampProbability(pGreater)
	case sim.AlternativeLess:
		return clampProbability(pLess)
	default:
		return clampProbability(2 * math.Min(pGreater, pLess))
	}
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
