package report

import (
	"fmt"
	"strings"

	"sigsim/domain/sim"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RunMarkdown renders a run as a Markdown document
func RunMarkdown(r *sim.RunReport) string {
	res := r.Result
	cfg := res.Config
	var b strings.Builder

	fmt.Fprintf(&b, "# Simulation %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Started %s, elapsed %s.\n\n", r.StartedAt, r.Elapsed)

	b.WriteString("## Configuration\n\n")
	b.WriteString("| setting | value |\n|---|---|\n")
	row(&b, "test", fmt.Sprintf("`%s` (%s)", cfg.TestFamily, cfg.Alternative))
	for i, g := range cfg.Groups {
		row(&b, fmt.Sprintf("group %d", i+1), fmt.Sprintf("n=%d %s", g.Size, g.Distribution))
	}
	row(&b, "effect size", formatFloat(cfg.EffectSize))
	if cfg.TestFamily.UsesNullValue() {
		row(&b, "null value", formatFloat(cfg.NullValue))
	}
	row(&b, "alpha", formatFloat(cfg.Alpha))
	row(&b, "trials", fmt.Sprint(cfg.TrialCount))
	row(&b, "procedure", procedureString(cfg))
	row(&b, "seed", seedString(cfg))
	row(&b, "config hash", "`"+res.ConfigHash.Short()+"`")

	b.WriteString("\n## Result\n\n")
	b.WriteString("| measure | value |\n|---|---|\n")
	row(&b, "rejected", fmt.Sprintf("%d of %d", res.RejectedCount, res.TrialCount))
	row(&b, "rejection rate", "**"+formatRate(res.RejectionRate)+"**")
	row(&b, "interval", formatInterval(res.ConfidenceInterval))
	row(&b, "degenerate trials", fmt.Sprint(res.DegenerateCount))
	row(&b, "p-value mean", formatRate(res.PValueSummary.Mean))
	row(&b, "p-value median", formatRate(res.PValueSummary.Median))
	row(&b, "p-value 5th / 95th percentile", formatRate(res.PValueSummary.P05)+" / "+formatRate(res.PValueSummary.P95))

	h := coarsen(res.PValueHistogram, 10)
	b.WriteString("\n## p-value distribution\n\n")
	b.WriteString("| bin | count |\n|---|---:|\n")
	for i, c := range h.Counts {
		row(&b, fmt.Sprintf("%.2f to %.2f", h.Edges[i], min(h.Edges[i+1], 1)), fmt.Sprint(c))
	}
	return b.String()
}

// SweepMarkdown renders a power curve as a Markdown document
func SweepMarkdown(s *sim.SweepResult) string {
	first := s.Points[0].Result.Config
	var b strings.Builder

	fmt.Fprintf(&b, "# Power sweep %s\n\n", s.RunID)
	fmt.Fprintf(&b, "`%s` (%s), %s, alpha %s, %d trials per point, seed %s.\n\n",
		first.TestFamily, first.Alternative, describeGroups(first),
		formatFloat(first.Alpha), first.TrialCount, seedString(first))

	b.WriteString("| effect | rejected | rate | interval | approx. power |\n")
	b.WriteString("|---:|---:|---:|---|---:|\n")
	for _, p := range s.Points {
		res := p.Result
		fmt.Fprintf(&b, "| %s | %d | %s | [%s, %s] | %s |\n",
			formatFloat(p.EffectSize), res.RejectedCount, formatRate(res.RejectionRate),
			formatRate(res.ConfidenceInterval.Lower), formatRate(res.ConfidenceInterval.Upper),
			formatApprox(p.ApproxPower))
	}
	return b.String()
}

func row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", key, value)
}

// toHTML converts Markdown into a complete HTML page. A parser may only be
// used once, so each call builds its own.
func toHTML(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}
