package app

import (
	"fmt"
	"math"
	"sort"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PValueBins is the number of equal-width histogram bins on [0, 1]
const PValueBins = 100

// ResultAggregator reduces completed trials into an AggregateResult
type ResultAggregator struct{}

// NewResultAggregator creates a new result aggregator
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{}
}

// Aggregate computes the rejection rate, its Wilson interval and the p-value
// distribution summaries. trials must be in index order.
func (a *ResultAggregator) Aggregate(trials []sim.Trial, cfg sim.SimulationConfig) (*sim.AggregateResult, error) {
	if len(trials) == 0 {
		return nil, core.NewEmptyResultError("no trials to aggregate")
	}

	level := cfg.ConfidenceLevel
	if level == 0 {
		level = sim.DefaultConfidenceLevel
	}

	rejected, degenerate := 0, 0
	pvalues := make([]float64, len(trials))
	for i, t := range trials {
		if t.Rejected {
			rejected++
		}
		if t.Degenerate {
			degenerate++
		}
		pvalues[i] = t.PValue
	}

	ci, err := WilsonInterval(rejected, len(trials), level)
	if err != nil {
		return nil, err
	}

	sort.Float64s(pvalues)
	summary, err := summarizePValues(pvalues)
	if err != nil {
		return nil, err
	}

	hash, err := core.ComputeConfigHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	result := &sim.AggregateResult{
		TrialCount:         len(trials),
		RejectedCount:      rejected,
		RejectionRate:      float64(rejected) / float64(len(trials)),
		ConfidenceInterval: ci,
		DegenerateCount:    degenerate,
		PValueSummary:      summary,
		PValueHistogram:    pValueHistogram(pvalues),
		Config:             cfg,
		ConfigHash:         hash,
	}
	if cfg.RetainTrials {
		result.Trials = trials
	}
	return result, nil
}

// WilsonInterval returns the Wilson score interval for successes out of n at
// the given two-sided confidence level. The bounds are clamped so that
// 0 <= Lower <= successes/n <= Upper <= 1.
func WilsonInterval(successes, n int, level float64) (sim.ConfidenceInterval, error) {
	if n < 1 {
		return sim.ConfidenceInterval{}, core.NewEmptyResultError("interval over zero trials")
	}
	if successes < 0 || successes > n {
		return sim.ConfidenceInterval{}, core.NewInvalidParameterError("successes", fmt.Sprintf("%d not in [0, %d]", successes, n))
	}
	if !(level > 0 && level < 1) {
		return sim.ConfidenceInterval{}, core.NewInvalidParameterError("confidence_level", "must be in (0, 1)")
	}

	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	fn := float64(n)
	phat := float64(successes) / fn
	z2 := z * z

	denom := 1 + z2/fn
	center := (phat + z2/(2*fn)) / denom
	half := z * math.Sqrt(phat*(1-phat)/fn+z2/(4*fn*fn)) / denom

	lower := math.Max(0, math.Min(center-half, phat))
	upper := math.Min(1, math.Max(center+half, phat))
	return sim.ConfidenceInterval{
		Lower:  lower,
		Upper:  upper,
		Level:  level,
		Method: "wilson",
	}, nil
}

// summarizePValues uses nearest-rank percentiles, which are defined for any
// non-empty sample
func summarizePValues(sorted []float64) (sim.PValueSummary, error) {
	data := stats.Float64Data(sorted)
	mean, err := stats.Mean(data)
	if err != nil {
		return sim.PValueSummary{}, fmt.Errorf("p-value mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return sim.PValueSummary{}, fmt.Errorf("p-value median: %w", err)
	}
	p05, err := stats.PercentileNearestRank(data, 5)
	if err != nil {
		return sim.PValueSummary{}, fmt.Errorf("p-value 5th percentile: %w", err)
	}
	p95, err := stats.PercentileNearestRank(data, 95)
	if err != nil {
		return sim.PValueSummary{}, fmt.Errorf("p-value 95th percentile: %w", err)
	}
	return sim.PValueSummary{Mean: mean, Median: median, P05: p05, P95: p95}, nil
}

// pValueHistogram bins sorted p-values into PValueBins equal-width bins.
// The last bin is closed so that p = 1 is counted.
func pValueHistogram(sorted []float64) sim.Histogram {
	edges := make([]float64, PValueBins+1)
	for i := range edges {
		edges[i] = float64(i) / PValueBins
	}
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[PValueBins] = math.Nextafter(1, 2)

	raw := stat.Histogram(nil, dividers, sorted, nil)
	counts := make([]int, len(raw))
	for i, c := range raw {
		counts[i] = int(c)
	}
	return sim.Histogram{Edges: edges, Counts: counts}
}
