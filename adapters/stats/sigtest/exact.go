package sigtest

import (
	"math"
	"sync"
)

// Exact null distributions are only used up to these sizes: the smaller
// Mann-Whitney group, and the number of nonzero signed-rank differences.
const (
	maxExactMannWhitney = 8
	maxExactWilcoxon    = 50
)

// Count tables are shared across trials and never mutated once stored
var (
	mannWhitneyCache sync.Map // [2]int{small, large} -> []float64
	signedRankCache  sync.Map // int -> []uint64
)

// signedRankCounts returns dp[s] = number of sign assignments of ranks 1..n
// whose positive ranks sum to s
func signedRankCounts(n int) []uint64 {
	if cached, ok := signedRankCache.Load(n); ok {
		return cached.([]uint64)
	}
	total := n * (n + 1) / 2
	dp := make([]uint64, total+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := total; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}
	counts, _ := signedRankCache.LoadOrStore(n, dp)
	return counts.([]uint64)
}

// signedRankTails returns P(W+ >= w) and P(W+ <= w) under H0
func signedRankTails(wPlus float64, n int) (pGreater, pLess float64) {
	dp := signedRankCounts(n)
	w := int(math.Round(wPlus))
	outcomes := float64(uint64(1) << uint(n))

	var ge, le uint64
	for s, c := range dp {
		if s >= w {
			ge += c
		}
		if s <= w {
			le += c
		}
	}
	return float64(ge) / outcomes, float64(le) / outcomes
}

// mannWhitneyCounts returns c[u] = number of orderings of n1 X values and n2
// Y values in which exactly u (x, y) pairs have x > y. The distribution is
// symmetric in the group sizes, so rows run over the smaller group.
// f(i, j, u) = f(i-1, j, u-j) + f(i, j-1, u): the largest value is either an X,
// beating all j Ys, or a Y.
func mannWhitneyCounts(n1, n2 int) []float64 {
	key := [2]int{min(n1, n2), max(n1, n2)}
	if cached, ok := mannWhitneyCache.Load(key); ok {
		return cached.([]float64)
	}

	small, large := key[0], key[1]
	// row[i] holds f(i, j, .) for the current column j
	row := make([][]float64, small+1)
	for i := range row {
		row[i] = []float64{1}
	}
	for j := 1; j <= large; j++ {
		for i := 1; i <= small; i++ {
			next := make([]float64, i*j+1)
			for u, c := range row[i-1] {
				next[u+j] += c
			}
			for u, c := range row[i] {
				next[u] += c
			}
			row[i] = next
		}
	}

	counts, _ := mannWhitneyCache.LoadOrStore(key, row[small])
	return counts.([]float64)
}

// mannWhitneyTails returns P(U >= u) and P(U <= u) under H0 for U of X over Y
func mannWhitneyTails(u float64, n1, n2 int) (pGreater, pLess float64) {
	counts := mannWhitneyCounts(n1, n2)
	obs := int(math.Round(u))

	var ge, le, total float64
	for k, c := range counts {
		total += c
		if k >= obs {
			ge += c
		}
		if k <= obs {
			le += c
		}
	}
	return ge / total, le / total
}
