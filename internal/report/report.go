// Package report renders simulation runs and power sweeps for people: an
// aligned text table, indented JSON, Markdown and a standalone HTML page.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sigsim/domain/core"
	"sigsim/domain/sim"
)

// Format selects a renderer
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats in display order
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatMarkdown, FormatHTML}
}

// ParseFormat accepts a format name, with "md" as an alias for markdown
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", core.NewInvalidParameterError("format", fmt.Sprintf("unknown report format %q, want %s", s, FormatList()))
}

// FormatList joins Formats with "|" for flag help and error messages
func FormatList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, "|")
}

// WriteRun renders a single simulation run
func WriteRun(w io.Writer, r *sim.RunReport, format Format) error {
	if r == nil || r.Result == nil {
		return core.NewInvalidParameterError("report", "run report has no result")
	}
	switch format {
	case FormatTable:
		return writeRunTable(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, RunMarkdown(r))
		return err
	case FormatHTML:
		_, err := w.Write(toHTML(RunMarkdown(r), "Simulation "+r.RunID.String()))
		return err
	}
	return core.NewInvalidParameterError("format", fmt.Sprintf("unknown report format %q", format))
}

// WriteSweep renders a power curve
func WriteSweep(w io.Writer, s *sim.SweepResult, format Format) error {
	if s == nil || len(s.Points) == 0 {
		return core.NewInvalidParameterError("report", "sweep has no points")
	}
	switch format {
	case FormatTable:
		return writeSweepTable(w, s)
	case FormatJSON:
		return writeJSON(w, s)
	case FormatMarkdown:
		_, err := io.WriteString(w, SweepMarkdown(s))
		return err
	case FormatHTML:
		_, err := w.Write(toHTML(SweepMarkdown(s), "Power sweep "+s.RunID.String()))
		return err
	}
	return core.NewInvalidParameterError("format", fmt.Sprintf("unknown report format %q", format))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeGroups gives "n=30 normal(mu=0, sigma=1) | n=30 ..." for headers
func describeGroups(cfg sim.SimulationConfig) string {
	parts := make([]string, len(cfg.Groups))
	for i, g := range cfg.Groups {
		parts[i] = fmt.Sprintf("n=%d %s", g.Size, g.Distribution)
	}
	return strings.Join(parts, " | ")
}

func seedString(cfg sim.SimulationConfig) string {
	if cfg.Seed == nil {
		return "-"
	}
	return strconv.FormatUint(*cfg.Seed, 10)
}

func procedureString(cfg sim.SimulationConfig) string {
	if cfg.Procedure == sim.ProcedureAddSample {
		return fmt.Sprintf("%s (x%s)", cfg.Procedure, formatFloat(cfg.AddSampleRatio))
	}
	return string(cfg.Procedure)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatInterval(ci sim.ConfidenceInterval) string {
	return fmt.Sprintf("[%s, %s] (%s%% %s)", formatRate(ci.Lower), formatRate(ci.Upper),
		strconv.FormatFloat(ci.Level*100, 'g', 4, 64), ci.Method)
}

func formatApprox(p *float64) string {
	if p == nil {
		return "-"
	}
	return formatRate(*p)
}
