package sim

import (
	"encoding/json"
	"math"
	"time"

	"sigsim/domain/core"
)

// TestResult is the outcome of one statistic computation
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	// DF is the reference distribution's degrees of freedom; 0 for normal references.
	DF float64 `json:"df,omitempty"`
}

// Trial is one simulated draw-and-test cycle
type Trial struct {
	Index      int         `json:"index"`
	Samples    [][]float64 `json:"samples,omitempty"`
	Statistic  float64     `json:"statistic"`
	PValue     float64     `json:"p_value"`
	Rejected   bool        `json:"rejected"`
	Attempts   int         `json:"attempts"`
	Degenerate bool        `json:"degenerate,omitempty"`
}

// MarshalJSON writes a diverged statistic (complete separation) as null
func (t Trial) MarshalJSON() ([]byte, error) {
	type plain Trial
	out := struct {
		plain
		Statistic *float64 `json:"statistic"`
	}{plain: plain(t)}
	if !math.IsInf(t.Statistic, 0) && !math.IsNaN(t.Statistic) {
		out.Statistic = &t.Statistic
	}
	return json.Marshal(out)
}

// ConfidenceInterval bounds the rejection-rate estimate
type ConfidenceInterval struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Level  float64 `json:"level"`
	Method string  `json:"method"`
}

// Contains reports whether v lies inside the closed interval
func (ci ConfidenceInterval) Contains(v float64) bool {
	return ci.Lower <= v && v <= ci.Upper
}

// Width returns Upper - Lower
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// PValueSummary describes the empirical p-value distribution
type PValueSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// Histogram holds equal-width bin counts; Edges has len(Counts)+1 entries
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// AggregateResult summarises a completed run. It is never mutated after return.
type AggregateResult struct {
	TrialCount         int                `json:"trial_count"`
	RejectedCount      int                `json:"rejected_count"`
	RejectionRate      float64            `json:"rejection_rate"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	DegenerateCount    int                `json:"degenerate_count"`
	PValueSummary      PValueSummary      `json:"p_value_summary"`
	PValueHistogram    Histogram          `json:"p_value_histogram"`

	// Config is the originating configuration with defaults applied and Seed
	// set to the seed actually used, so the run can be replayed exactly.
	Config     SimulationConfig `json:"config"`
	ConfigHash core.ConfigHash  `json:"config_hash"`

	Trials []Trial `json:"trials,omitempty"`
}

// RunReport wraps a result with run provenance that is not part of the
// reproducible result itself
type RunReport struct {
	RunID     core.RunID       `json:"run_id"`
	StartedAt core.Timestamp   `json:"started_at"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
	Result    *AggregateResult `json:"result"`
}

// SweepPoint is one effect size of a power sweep
type SweepPoint struct {
	EffectSize float64          `json:"effect_size"`
	Result     *AggregateResult `json:"result"`
	// ApproxPower is the closed-form normal approximation, nil when the family has none
	ApproxPower *float64 `json:"approx_power,omitempty"`
}

// SweepResult is a power curve over effect sizes
type SweepResult struct {
	RunID     core.RunID     `json:"run_id"`
	StartedAt core.Timestamp `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	Points    []SweepPoint   `json:"points"`
}
