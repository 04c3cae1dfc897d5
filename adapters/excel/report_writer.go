// Package excel exports simulation runs and power sweeps as XLSX workbooks.
package excel

import (
	"fmt"
	"io"
	"math"

	"sigsim/domain/sim"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbooks
const (
	SheetSummary = "Summary"
	SheetPValues = "PValues"
	SheetTrials  = "Trials"
	SheetCurve   = "PowerCurve"
)

// ReportWriter builds workbooks from results
type ReportWriter struct {
	headerStyle *excelize.Style
}

// NewReportWriter creates a writer with bold header rows
func NewReportWriter() *ReportWriter {
	return &ReportWriter{headerStyle: &excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	}}
}

// WriteRun writes a Summary sheet, the p-value histogram and, when the run
// retained them, one row per trial
func (w *ReportWriter) WriteRun(out io.Writer, r *sim.RunReport) error {
	if r == nil || r.Result == nil {
		return fmt.Errorf("write run workbook: no result")
	}
	f := excelize.NewFile()
	defer f.Close()

	res := r.Result
	cfg := res.Config
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}

	summary := [][]any{
		{"run_id", r.RunID.String()},
		{"started_at", r.StartedAt.String()},
		{"elapsed_seconds", r.Elapsed.Seconds()},
		{"test_family", string(cfg.TestFamily)},
		{"alternative", string(cfg.Alternative)},
	}
	for i, g := range cfg.Groups {
		summary = append(summary,
			[]any{fmt.Sprintf("group_%d_size", i+1), g.Size},
			[]any{fmt.Sprintf("group_%d_distribution", i+1), g.Distribution.String()},
		)
	}
	summary = append(summary,
		[]any{"effect_size", cfg.EffectSize},
		[]any{"null_value", cfg.NullValue},
		[]any{"alpha", cfg.Alpha},
		[]any{"procedure", string(cfg.Procedure)},
		[]any{"add_sample_ratio", cfg.AddSampleRatio},
		[]any{"degenerate_policy", string(cfg.DegeneratePolicy)},
		[]any{"seed", seedCell(cfg.Seed)},
		[]any{"config_hash", res.ConfigHash.String()},
		[]any{"trial_count", res.TrialCount},
		[]any{"rejected_count", res.RejectedCount},
		[]any{"rejection_rate", res.RejectionRate},
		[]any{"ci_lower", res.ConfidenceInterval.Lower},
		[]any{"ci_upper", res.ConfidenceInterval.Upper},
		[]any{"ci_level", res.ConfidenceInterval.Level},
		[]any{"ci_method", res.ConfidenceInterval.Method},
		[]any{"degenerate_count", res.DegenerateCount},
		[]any{"p_value_mean", res.PValueSummary.Mean},
		[]any{"p_value_median", res.PValueSummary.Median},
		[]any{"p_value_p05", res.PValueSummary.P05},
		[]any{"p_value_p95", res.PValueSummary.P95},
	)
	if err := w.writeTable(f, SheetSummary, []string{"measure", "value"}, summary); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "B", 28); err != nil {
		return err
	}

	h := res.PValueHistogram
	bins := make([][]any, len(h.Counts))
	for i, c := range h.Counts {
		bins[i] = []any{h.Edges[i], math.Min(h.Edges[i+1], 1), c}
	}
	if err := w.addSheet(f, SheetPValues, []string{"lower", "upper", "count"}, bins); err != nil {
		return err
	}

	if len(res.Trials) > 0 {
		trials := make([][]any, len(res.Trials))
		for i, t := range res.Trials {
			trials[i] = []any{t.Index, statisticCell(t.Statistic), t.PValue, t.Rejected, t.Attempts, t.Degenerate}
		}
		header := []string{"index", "statistic", "p_value", "rejected", "attempts", "degenerate"}
		if err := w.addSheet(f, SheetTrials, header, trials); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(out)
	return err
}

// WriteSweep writes one row per effect size of a power curve
func (w *ReportWriter) WriteSweep(out io.Writer, s *sim.SweepResult) error {
	if s == nil || len(s.Points) == 0 {
		return fmt.Errorf("write sweep workbook: no points")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCurve); err != nil {
		return err
	}
	rows := make([][]any, len(s.Points))
	for i, p := range s.Points {
		var approx any
		if p.ApproxPower != nil {
			approx = *p.ApproxPower
		}
		res := p.Result
		rows[i] = []any{p.EffectSize, res.TrialCount, res.RejectedCount, res.RejectionRate,
			res.ConfidenceInterval.Lower, res.ConfidenceInterval.Upper, approx}
	}
	header := []string{"effect_size", "trials", "rejected", "rejection_rate", "ci_lower", "ci_upper", "approx_power"}
	if err := w.writeTable(f, SheetCurve, header, rows); err != nil {
		return err
	}

	_, err := f.WriteTo(out)
	return err
}

func (w *ReportWriter) addSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return w.writeTable(f, sheet, header, rows)
}

// writeTable puts a styled header in row 1 and the data below it
func (w *ReportWriter) writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(w.headerStyle)
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedCell keeps seeds above 2^53 exact by writing them as text
func seedCell(seed *uint64) any {
	if seed == nil {
		return ""
	}
	return fmt.Sprint(*seed)
}

// statisticCell keeps a diverged statistic out of numeric cells
func statisticCell(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprint(v)
	}
	return v
}
