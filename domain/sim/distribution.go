package sim

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"sigsim/domain/core"
)

// DistributionFamily names a population distribution samples are drawn from
type DistributionFamily string

const (
	DistNormal    DistributionFamily = "normal"
	DistLogNormal DistributionFamily = "lognormal"
	DistGamma     DistributionFamily = "gamma"
	DistUniform   DistributionFamily = "uniform"
	DistBernoulli DistributionFamily = "bernoulli"
)

// Parameter names
const (
	ParamMu    = "mu"
	ParamSigma = "sigma"
	ParamShape = "shape"
	ParamScale = "scale"
	ParamMin   = "min"
	ParamMax   = "max"
	ParamP     = "p"
)

// DistributionFamilies returns every supported family in a stable order
func DistributionFamilies() []DistributionFamily {
	return []DistributionFamily{DistNormal, DistLogNormal, DistGamma, DistUniform, DistBernoulli}
}

// ParamNames lists the parameters the family accepts, sorted
func (f DistributionFamily) ParamNames() []string {
	names := make([]string, 0, len(paramDefaults[f]))
	for name := range paramDefaults[f] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// paramDefaults lists accepted parameters per family. NaN marks a required parameter.
var paramDefaults = map[DistributionFamily]map[string]float64{
	DistNormal:    {ParamMu: 0, ParamSigma: 1},
	DistLogNormal: {ParamMu: 0, ParamSigma: 1},
	DistGamma:     {ParamShape: 1, ParamScale: 1},
	DistUniform:   {ParamMin: 0, ParamMax: 1},
	DistBernoulli: {ParamP: math.NaN()},
}

// DistributionSpec is a distribution family plus its named parameters
type DistributionSpec struct {
	Family DistributionFamily `json:"family" yaml:"family"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// Normal is a convenience constructor
func Normal(mu, sigma float64) DistributionSpec {
	return DistributionSpec{Family: DistNormal, Params: map[string]float64{ParamMu: mu, ParamSigma: sigma}}
}

// Bernoulli is a convenience constructor
func Bernoulli(p float64) DistributionSpec {
	return DistributionSpec{Family: DistBernoulli, Params: map[string]float64{ParamP: p}}
}

// Param returns a parameter value, falling back to the family default
func (d DistributionSpec) Param(name string) float64 {
	if v, ok := d.Params[name]; ok {
		return v
	}
	return paramDefaults[d.Family][name]
}

// Discrete reports whether draws are 0/1 outcomes
func (d DistributionSpec) Discrete() bool {
	return d.Family == DistBernoulli
}

// Validate checks the family, parameter names and parameter domains.
// shift is the effect applied to this group; it matters only for Bernoulli,
// where p + shift must stay a probability.
func (d DistributionSpec) Validate(shift float64) error {
	defaults, ok := paramDefaults[d.Family]
	if !ok {
		return core.NewInvalidParameterError("distribution", fmt.Sprintf("unsupported family %q", d.Family))
	}
	for name, v := range d.Params {
		if _, known := defaults[name]; !known {
			return core.NewInvalidParameterError(string(d.Family), fmt.Sprintf("unknown parameter %q", name))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewInvalidParameterError(string(d.Family)+"."+name, "must be finite")
		}
	}
	for name, def := range defaults {
		if _, set := d.Params[name]; !set && math.IsNaN(def) {
			return core.NewInvalidParameterError(string(d.Family), fmt.Sprintf("missing required parameter %q", name))
		}
	}

	switch d.Family {
	case DistNormal, DistLogNormal:
		if d.Param(ParamSigma) < 0 {
			return core.NewInvalidParameterError(string(d.Family)+".sigma", "must be >= 0")
		}
	case DistGamma:
		if d.Param(ParamShape) <= 0 {
			return core.NewInvalidParameterError("gamma.shape", "must be > 0")
		}
		if d.Param(ParamScale) <= 0 {
			return core.NewInvalidParameterError("gamma.scale", "must be > 0")
		}
	case DistUniform:
		if d.Param(ParamMin) > d.Param(ParamMax) {
			return core.NewInvalidParameterError("uniform", "min must be <= max")
		}
	case DistBernoulli:
		p := d.Param(ParamP)
		if p < 0 || p > 1 {
			return core.NewInvalidParameterError("bernoulli.p", "must be in [0,1]")
		}
		if shifted := p + shift; shifted < 0 || shifted > 1 {
			return core.NewInvalidParameterError("bernoulli.p", fmt.Sprintf("p + effect = %g leaves [0,1]", shifted))
		}
	}
	return nil
}

// Mean returns the population mean
func (d DistributionSpec) Mean() float64 {
	switch d.Family {
	case DistNormal:
		return d.Param(ParamMu)
	case DistLogNormal:
		s := d.Param(ParamSigma)
		return math.Exp(d.Param(ParamMu) + s*s/2)
	case DistGamma:
		return d.Param(ParamShape) * d.Param(ParamScale)
	case DistUniform:
		return (d.Param(ParamMin) + d.Param(ParamMax)) / 2
	case DistBernoulli:
		return d.Param(ParamP)
	}
	return math.NaN()
}

// StdDev returns the population standard deviation
func (d DistributionSpec) StdDev() float64 {
	switch d.Family {
	case DistNormal:
		return d.Param(ParamSigma)
	case DistLogNormal:
		s2 := d.Param(ParamSigma) * d.Param(ParamSigma)
		return math.Sqrt((math.Exp(s2) - 1) * math.Exp(2*d.Param(ParamMu)+s2))
	case DistGamma:
		return math.Sqrt(d.Param(ParamShape)) * d.Param(ParamScale)
	case DistUniform:
		return (d.Param(ParamMax) - d.Param(ParamMin)) / math.Sqrt(12)
	case DistBernoulli:
		p := d.Param(ParamP)
		return math.Sqrt(p * (1 - p))
	}
	return math.NaN()
}

// String renders the spec like "Normal(mu=0, sigma=1)"
func (d DistributionSpec) String() string {
	defaults := paramDefaults[d.Family]
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	out := string(d.Family) + "("
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name + "=" + strconv.FormatFloat(d.Param(name), 'g', 6, 64)
	}
	return out + ")"
}

func (d DistributionSpec) clone() DistributionSpec {
	out := DistributionSpec{Family: d.Family}
	if d.Params != nil {
		out.Params = make(map[string]float64, len(d.Params))
		for k, v := range d.Params {
			out.Params[k] = v
		}
	}
	return out
}
