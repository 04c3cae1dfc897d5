package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sigsim/domain/sim"
)

const histogramBarWidth = 40

func writeRunTable(w io.Writer, r *sim.RunReport) error {
	res := r.Result
	cfg := res.Config

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Started\t%s\n", r.StartedAt)
	fmt.Fprintf(tw, "Elapsed\t%s\n", r.Elapsed)
	fmt.Fprintf(tw, "Test\t%s (%s)\n", cfg.TestFamily, cfg.Alternative)
	fmt.Fprintf(tw, "Groups\t%s\n", describeGroups(cfg))
	fmt.Fprintf(tw, "Effect size\t%s\n", formatFloat(cfg.EffectSize))
	if cfg.TestFamily.UsesNullValue() {
		fmt.Fprintf(tw, "Null value\t%s\n", formatFloat(cfg.NullValue))
	}
	fmt.Fprintf(tw, "Alpha\t%s\n", formatFloat(cfg.Alpha))
	fmt.Fprintf(tw, "Procedure\t%s\n", procedureString(cfg))
	fmt.Fprintf(tw, "Seed\t%s\n", seedString(cfg))
	fmt.Fprintf(tw, "Config hash\t%s\n", res.ConfigHash.Short())
	fmt.Fprintln(tw, "\t")
	fmt.Fprintf(tw, "Trials\t%d\n", res.TrialCount)
	fmt.Fprintf(tw, "Rejected\t%d\n", res.RejectedCount)
	fmt.Fprintf(tw, "Rejection rate\t%s\n", formatRate(res.RejectionRate))
	fmt.Fprintf(tw, "Interval\t%s\n", formatInterval(res.ConfidenceInterval))
	if res.DegenerateCount > 0 {
		fmt.Fprintf(tw, "Degenerate\t%d\n", res.DegenerateCount)
	}
	s := res.PValueSummary
	fmt.Fprintf(tw, "p-value mean/median\t%s / %s\n", formatRate(s.Mean), formatRate(s.Median))
	fmt.Fprintf(tw, "p-value p05/p95\t%s / %s\n", formatRate(s.P05), formatRate(s.P95))
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\np-value histogram"); err != nil {
		return err
	}
	return writeHistogram(w, coarsen(res.PValueHistogram, 10))
}

func writeSweepTable(w io.Writer, s *sim.SweepResult) error {
	first := s.Points[0].Result.Config
	if _, err := fmt.Fprintf(w, "Power sweep %s: %s (%s), %s, alpha %s, %d trials per point\n\n",
		s.RunID, first.TestFamily, first.Alternative, describeGroups(first),
		formatFloat(first.Alpha), first.TrialCount); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "effect\trejected\trate\tlower\tupper\tapprox\t")
	for _, p := range s.Points {
		res := p.Result
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n",
			formatFloat(p.EffectSize), res.RejectedCount, formatRate(res.RejectionRate),
			formatRate(res.ConfidenceInterval.Lower), formatRate(res.ConfidenceInterval.Upper),
			formatApprox(p.ApproxPower))
	}
	return tw.Flush()
}

// coarsen merges adjacent bins so the histogram fits on screen. bins must
// divide len(h.Counts); otherwise h is returned unchanged.
func coarsen(h sim.Histogram, bins int) sim.Histogram {
	n := len(h.Counts)
	if bins <= 0 || n <= bins || n%bins != 0 {
		return h
	}
	step := n / bins
	out := sim.Histogram{Edges: make([]float64, 0, bins+1), Counts: make([]int, bins)}
	for i := 0; i < bins; i++ {
		out.Edges = append(out.Edges, h.Edges[i*step])
		for j := 0; j < step; j++ {
			out.Counts[i] += h.Counts[i*step+j]
		}
	}
	out.Edges = append(out.Edges, h.Edges[n])
	return out
}

func writeHistogram(w io.Writer, h sim.Histogram) error {
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = c * histogramBarWidth / peak
		}
		fmt.Fprintf(tw, "[%.2f, %.2f)\t%d\t%s\n", h.Edges[i], min(h.Edges[i+1], 1), c, strings.Repeat("#", bar))
	}
	return tw.Flush()
}
