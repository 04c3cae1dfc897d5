package sigtest

import (
	"math"

	"sigsim/domain/sim"

	"gonum.org/v1/gonum/stat/distuv"
)

// ApproxPower returns the normal-approximation power of cfg's test at its
// effect size. ok is false when no closed form applies: rank-based families,
// follow-up procedures, or a zero standard error.
func (e *Engine) ApproxPower(cfg sim.SimulationConfig) (power float64, ok bool) {
	if cfg.Procedure != "" && cfg.Procedure != sim.ProcedureBasic {
		return 0, false
	}
	if len(cfg.Groups) != cfg.TestFamily.GroupCount() {
		return 0, false
	}
	alt := cfg.Alternative
	if alt == "" {
		alt = sim.AlternativeTwoSided
	}

	x := cfg.Groups[0]
	nx := float64(x.Size)

	var delta, se0, se1 float64
	switch cfg.TestFamily {
	case sim.TestOneSampleT:
		delta = x.Distribution.Mean() + cfg.EffectSize - cfg.NullValue
		se0 = x.Distribution.StdDev() / math.Sqrt(nx)
		se1 = se0
	case sim.TestStudentT, sim.TestWelchT:
		y := cfg.Groups[1]
		ny := float64(y.Size)
		delta = x.Distribution.Mean() + cfg.EffectSize - y.Distribution.Mean()
		sx, sy := x.Distribution.StdDev(), y.Distribution.StdDev()
		se0 = math.Sqrt(sx*sx/nx + sy*sy/ny)
		se1 = se0
	case sim.TestPairedT:
		// groups are drawn independently, so the difference variance is additive
		y := cfg.Groups[1]
		delta = x.Distribution.Mean() + cfg.EffectSize - y.Distribution.Mean()
		sx, sy := x.Distribution.StdDev(), y.Distribution.StdDev()
		se0 = math.Sqrt((sx*sx + sy*sy) / nx)
		se1 = se0
	case sim.TestOneProportionZ:
		p0 := cfg.NullValue
		p1 := x.Distribution.Param(sim.ParamP) + cfg.EffectSize
		delta = p1 - p0
		se0 = math.Sqrt(p0 * (1 - p0) / nx)
		se1 = math.Sqrt(p1 * (1 - p1) / nx)
	case sim.TestTwoProportionZ:
		y := cfg.Groups[1]
		ny := float64(y.Size)
		p1 := x.Distribution.Param(sim.ParamP) + cfg.EffectSize
		p2 := y.Distribution.Param(sim.ParamP)
		pbar := (nx*p1 + ny*p2) / (nx + ny)
		delta = p1 - p2
		se0 = math.Sqrt(pbar * (1 - pbar) * (1/nx + 1/ny))
		se1 = math.Sqrt(p1*(1-p1)/nx + p2*(1-p2)/ny)
	default:
		return 0, false
	}

	if se0 <= 0 || se1 <= 0 || math.IsNaN(se0) || math.IsNaN(se1) {
		return 0, false
	}
	return normalPower(delta, se0, se1, cfg.Alpha, alt), true
}

// normalPower is P(reject) for a z statistic whose null standard error is se0
// and whose true standard error is se1
func normalPower(delta, se0, se1, alpha float64, alt sim.Alternative) float64 {
	phi := distuv.UnitNormal.CDF
	switch alt {
	case sim.AlternativeGreater:
		z := distuv.UnitNormal.Quantile(1 - alpha)
		return phi((delta - z*se0) / se1)
	case sim.AlternativeLess:
		z := distuv.UnitNormal.Quantile(1 - alpha)
		return phi((-delta - z*se0) / se1)
	default:
		z := distuv.UnitNormal.Quantile(1 - alpha/2)
		return phi((delta-z*se0)/se1) + phi((-delta-z*se0)/se1)
	}
}
