package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"sigsim/adapters/scenario"
	"sigsim/domain/sim"
	"sigsim/internal/errors"
	"sigsim/internal/report"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// formatXLSX extends the report formats for downloads
const formatXLSX = "xlsx"

// SweepRequest is the body of POST /api/v1/sweeps
type SweepRequest struct {
	Scenario json.RawMessage `json:"scenario"`
	Effects  []float64       `json:"effects"`
}

// FamilyInfo describes one supported test family
type FamilyInfo struct {
	Name         sim.TestFamily `json:"name"`
	Description  string         `json:"description"`
	Groups       int            `json:"groups"`
	MinGroupSize int            `json:"min_group_size"`
	Paired       bool           `json:"paired"`
	UsesNull     bool           `json:"uses_null_value"`
}

// DistributionInfo describes one sampling distribution
type DistributionInfo struct {
	Name   sim.DistributionFamily `json:"name"`
	Params []string               `json:"params"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFamilies(c *gin.Context) {
	families := s.sim.Families()
	out := make([]FamilyInfo, len(families))
	for i, f := range families {
		out[i] = FamilyInfo{
			Name:         f,
			Description:  f.Description(),
			Groups:       f.GroupCount(),
			MinGroupSize: f.MinGroupSize(),
			Paired:       f.Paired(),
			UsesNull:     f.UsesNullValue(),
		}
	}
	dists := make([]DistributionInfo, 0, len(sim.DistributionFamilies()))
	for _, d := range sim.DistributionFamilies() {
		dists = append(dists, DistributionInfo{Name: d, Params: d.ParamNames()})
	}
	c.JSON(http.StatusOK, gin.H{"families": out, "distributions": dists})
}

// handleSimulate runs the scenario in the request body. ?format= selects
// json (default), table, markdown, html or xlsx.
func (s *Server) handleSimulate(c *gin.Context) {
	format, err := outputFormat(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, errors.RequestBody(err, "failed to read request body"))
		return
	}
	cfg, err := s.decodeScenario(body, scenarioFormat(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if cfg.TrialCount > s.opts.MaxTrials {
		s.fail(c, errors.InvalidInput(fmt.Sprintf("trials %d exceed the limit of %d", cfg.TrialCount, s.opts.MaxTrials)))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	run, err := s.sim.Simulate(ctx, cfg)
	if err != nil {
		s.fail(c, errors.FromDomain(err))
		return
	}
	recordResult(run.Result)

	var buf bytes.Buffer
	switch format {
	case report.FormatJSON:
		c.JSON(http.StatusOK, run)
		return
	case formatXLSX:
		err = s.workbook.WriteRun(&buf, run)
	default:
		err = report.WriteRun(&buf, run, report.Format(format))
	}
	s.write(c, format, buf.Bytes(), err)
}

// handleSweep runs a power sweep: {"scenario": {...}, "effects": [...]}
func (s *Server) handleSweep(c *gin.Context) {
	format, err := outputFormat(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	var req SweepRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(c, errors.RequestBody(err, "failed to decode sweep request"))
		return
	}
	if len(req.Scenario) == 0 {
		s.fail(c, errors.InvalidInput("scenario is required"))
		return
	}
	if len(req.Effects) == 0 {
		s.fail(c, errors.InvalidInput("effects must list at least one effect size"))
		return
	}
	cfg, err := s.decodeScenario(req.Scenario, scenario.FormatJSON)
	if err != nil {
		s.fail(c, err)
		return
	}
	if total := cfg.TrialCount * len(req.Effects); cfg.TrialCount > s.opts.MaxTrials || total > s.opts.MaxTrials {
		s.fail(c, errors.InvalidInput(fmt.Sprintf("sweep of %d trials exceeds the limit of %d", total, s.opts.MaxTrials)))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.sim.Sweep(ctx, cfg, req.Effects)
	if err != nil {
		s.fail(c, errors.FromDomain(err))
		return
	}
	for _, p := range res.Points {
		recordResult(p.Result)
	}

	var buf bytes.Buffer
	switch format {
	case report.FormatJSON:
		c.JSON(http.StatusOK, res)
		return
	case formatXLSX:
		err = s.workbook.WriteSweep(&buf, res)
	default:
		err = report.WriteSweep(&buf, res, report.Format(format))
	}
	s.write(c, format, buf.Bytes(), err)
}

func (s *Server) decodeScenario(body []byte, format scenario.Format) (sim.SimulationConfig, error) {
	doc, err := scenario.Parse(body, format)
	if err != nil {
		return sim.SimulationConfig{}, errors.FromDomain(err)
	}
	cfg, err := doc.ToConfig(s.opts.Defaults)
	if err != nil {
		return sim.SimulationConfig{}, errors.FromDomain(err)
	}
	return cfg, nil
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
}

func (s *Server) write(c *gin.Context, format report.Format, body []byte, err error) {
	if err != nil {
		s.fail(c, errors.Wrap(err, "failed to render result"))
		return
	}
	switch format {
	case formatXLSX:
		c.Header("Content-Disposition", `attachment; filename="sigsim.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, body)
	case report.FormatHTML:
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	case report.FormatMarkdown:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", body)
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	runErrors.WithLabelValues(code).Inc()
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func outputFormat(c *gin.Context) (report.Format, error) {
	raw := c.DefaultQuery("format", string(report.FormatJSON))
	if strings.EqualFold(raw, formatXLSX) {
		return formatXLSX, nil
	}
	f, err := report.ParseFormat(raw)
	if err != nil {
		return "", errors.FromDomain(err)
	}
	return f, nil
}

// scenarioFormat reads YAML bodies when the client says so; JSON otherwise
func scenarioFormat(c *gin.Context) scenario.Format {
	if strings.Contains(c.ContentType(), "yaml") {
		return scenario.FormatYAML
	}
	return scenario.FormatJSON
}
