package sigtest

import (
	"math"
	"sort"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"gonum.org/v1/gonum/stat/distuv"
)

// rankAverage returns 1-based ranks of x with ties given their average rank,
// and the sizes of every tie group larger than one
func rankAverage(x []float64) (ranks []float64, ties []int) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks = make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of ranks i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// tieTerm returns sum(t^3 - t) over tie groups
func tieTerm(ties []int) float64 {
	var s float64
	for _, t := range ties {
		ft := float64(t)
		s += ft*ft*ft - ft
	}
	return s
}

// mannWhitneyU reports U of X over Y. Untied samples whose smaller group has
// at most maxExactMannWhitney values use the exact null distribution; otherwise
// the normal approximation with tie and continuity correction.
func mannWhitneyU(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	n1, n2 := len(x), len(y)
	combined := make([]float64, 0, n1+n2)
	combined = append(combined, x...)
	combined = append(combined, y...)
	ranks, ties := rankAverage(combined)

	var r1 float64
	for _, r := range ranks[:n1] {
		r1 += r
	}
	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2

	if len(ties) == 0 && min(n1, n2) <= maxExactMannWhitney {
		pg, pl := mannWhitneyTails(u1, n1, n2)
		return sim.TestResult{Statistic: u1, PValue: discretePValue(pg, pl, alt)}, nil
	}

	n := fn1 + fn2
	variance := fn1 * fn2 / 12 * ((n + 1) - tieTerm(ties)/(n*(n-1)))
	if variance <= 0 {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestMannWhitneyU), "all observations tied")
	}
	sigma := math.Sqrt(variance)
	mu := fn1 * fn2 / 2
	u2 := fn1*fn2 - u1

	var u float64
	switch alt {
	case sim.AlternativeGreater:
		u = u1
	case sim.AlternativeLess:
		u = u2
	default:
		u = math.Max(u1, u2)
	}
	z := (u - mu - 0.5) / sigma
	p := distuv.UnitNormal.Survival(z)
	if alt == sim.AlternativeTwoSided {
		p *= 2
	}
	return sim.TestResult{Statistic: u1, PValue: clampProbability(p)}, nil
}

// wilcoxonSignedRank reports W+, the rank sum of positive differences x - y.
// Zero differences are dropped. Small samples with no ties and no zero
// differences use the exact null distribution; otherwise the tie-corrected
// normal approximation.
func wilcoxonSignedRank(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	var d []float64
	zeros := 0
	for i := range x {
		if diff := x[i] - y[i]; diff != 0 {
			d = append(d, diff)
		} else {
			zeros++
		}
	}
	n := len(d)
	if n == 0 {
		return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestWilcoxonSignedRank), "all differences are zero")
	}

	abs := make([]float64, n)
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks, ties := rankAverage(abs)

	var wPlus float64
	for i, v := range d {
		if v > 0 {
			wPlus += ranks[i]
		}
	}

	if len(ties) == 0 && zeros == 0 && n <= maxExactWilcoxon {
		pg, pl := signedRankTails(wPlus, n)
		return sim.TestResult{Statistic: wPlus, PValue: discretePValue(pg, pl, alt)}, nil
	}

	fn := float64(n)
	mean := fn * (fn + 1) / 4
	variance := fn*(fn+1)*(2*fn+1)/24 - tieTerm(ties)/48
	z := (wPlus - mean) / math.Sqrt(variance)
	return sim.TestResult{
		Statistic: wPlus,
		PValue:    tailPValue(distuv.UnitNormal, z, alt),
	}, nil
}

// brunnerMunzel tests P(X > Y) + P(X = Y)/2 = 1/2 with a t reference.
// The statistic is positive when X tends to be larger than Y.
func brunnerMunzel(x, y []float64, alt sim.Alternative) (sim.TestResult, error) {
	nx, ny := len(x), len(y)
	combined := make([]float64, 0, nx+ny)
	combined = append(combined, x...)
	combined = append(combined, y...)
	rankc, _ := rankAverage(combined)
	rankcx, rankcy := rankc[:nx], rankc[nx:]
	rankx, _ := rankAverage(x)
	ranky, _ := rankAverage(y)

	fx, fy := float64(nx), float64(ny)
	mcx, mcy := average(rankcx), average(rankcy)
	mx, my := average(rankx), average(ranky)

	sx := placementVariance(rankcx, rankx, mcx, mx) / (fx - 1)
	sy := placementVariance(rankcy, ranky, mcy, my) / (fy - 1)

	diff := mcx - mcy
	pooled := fx*sx + fy*sy
	if pooled == 0 {
		if diff == 0 {
			return sim.TestResult{}, core.NewDegenerateSampleError(string(sim.TestBrunnerMunzel), "all observations tied")
		}
		// complete separation: the statistic diverges
		w := math.Inf(1)
		if diff < 0 {
			w = math.Inf(-1)
		}
		return sim.TestResult{Statistic: w, PValue: infinitePValue(w, alt)}, nil
	}

	w := fx * fy * diff / ((fx + fy) * math.Sqrt(pooled))
	num := pooled * pooled
	den := (fx*sx)*(fx*sx)/(fx-1) + (fy*sy)*(fy*sy)/(fy-1)
	df := num / den

	return sim.TestResult{
		Statistic: w,
		PValue:    tailPValue(studentsT(df), w, alt),
		DF:        df,
	}, nil
}

// placementVariance sums squared deviations of the placements
// (combined rank minus within-group rank) from their mean
func placementVariance(combined, within []float64, mc, mw float64) float64 {
	var s float64
	for i := range combined {
		d := combined[i] - within[i] - mc + mw
		s += d * d
	}
	return s
}

func average(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}
