// Package scenario reads simulation scenarios from YAML or JSON documents and
// converts them to engine configurations.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigsim/domain/core"
	"sigsim/domain/sim"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format is a scenario document encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Group is one sample group of a scenario
type Group struct {
	Size         int                `yaml:"size" json:"size" validate:"gte=1"`
	Distribution string             `yaml:"distribution" json:"distribution" validate:"required,oneof=normal lognormal gamma uniform bernoulli"`
	Params       map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// Scenario is the document form of a simulation. Omitted alpha, trials and
// confidence_level take the caller's defaults; an explicit trials: 0 is kept
// so the engine can reject it.
type Scenario struct {
	Name             string   `yaml:"name,omitempty" json:"name,omitempty"`
	Test             string   `yaml:"test" json:"test" validate:"required"`
	Alternative      string   `yaml:"alternative,omitempty" json:"alternative,omitempty" validate:"omitempty,oneof=two-sided less greater"`
	Groups           []Group  `yaml:"groups" json:"groups" validate:"required,min=1,max=2,dive"`
	EffectSize       float64  `yaml:"effect_size,omitempty" json:"effect_size,omitempty"`
	NullValue        float64  `yaml:"null_value,omitempty" json:"null_value,omitempty"`
	Alpha            *float64 `yaml:"alpha,omitempty" json:"alpha,omitempty" validate:"omitempty,gt=0,lt=1"`
	Trials           *int     `yaml:"trials,omitempty" json:"trials,omitempty"`
	Seed             *uint64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	ConfidenceLevel  float64  `yaml:"confidence_level,omitempty" json:"confidence_level,omitempty" validate:"omitempty,gt=0,lt=1"`
	Procedure        string   `yaml:"procedure,omitempty" json:"procedure,omitempty" validate:"omitempty,oneof=basic retest add_sample"`
	AddSampleRatio   float64  `yaml:"add_sample_ratio,omitempty" json:"add_sample_ratio,omitempty" validate:"omitempty,gte=1"`
	RetainTrials     bool     `yaml:"retain_trials,omitempty" json:"retain_trials,omitempty"`
	Workers          int      `yaml:"workers,omitempty" json:"workers,omitempty" validate:"gte=0"`
	DegeneratePolicy string   `yaml:"degenerate_policy,omitempty" json:"degenerate_policy,omitempty" validate:"omitempty,oneof=fail count"`
}

// Defaults fill fields a scenario leaves unset
type Defaults struct {
	Alpha           float64
	Trials          int
	ConfidenceLevel float64
	Workers         int
}

var validate = validator.New()

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", core.NewInvalidParameterError("scenario", fmt.Sprintf("unsupported file extension %q", filepath.Ext(path)))
	}
}

// LoadFile reads and validates a scenario file
func LoadFile(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Scenario, error) {
	s := &Scenario{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil {
			return nil, core.NewInvalidParameterError("scenario", fmt.Sprintf("decode yaml: %v", err))
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return nil, core.NewInvalidParameterError("scenario", fmt.Sprintf("decode json: %v", err))
		}
	default:
		return nil, core.NewInvalidParameterError("format", fmt.Sprintf("unsupported scenario format %q", format))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the document shape. Semantic checks that need the
// distribution maths happen in sim.SimulationConfig.Validate.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return core.NewInvalidParameterError("scenario", describe(err))
	}
	return nil
}

// ToConfig converts the scenario into an engine configuration
func (s *Scenario) ToConfig(d Defaults) (sim.SimulationConfig, error) {
	family, err := sim.ParseTestFamily(s.Test)
	if err != nil {
		return sim.SimulationConfig{}, err
	}

	cfg := sim.SimulationConfig{
		TestFamily:       family,
		Alternative:      sim.Alternative(s.Alternative),
		EffectSize:       s.EffectSize,
		NullValue:        s.NullValue,
		Alpha:            d.Alpha,
		TrialCount:       d.Trials,
		ConfidenceLevel:  d.ConfidenceLevel,
		Procedure:        sim.Procedure(s.Procedure),
		AddSampleRatio:   s.AddSampleRatio,
		DegeneratePolicy: sim.DegeneratePolicy(s.DegeneratePolicy),
		RetainTrials:     s.RetainTrials,
		Workers:          d.Workers,
	}
	if s.Alpha != nil {
		cfg.Alpha = *s.Alpha
	}
	if s.Trials != nil {
		cfg.TrialCount = *s.Trials
	}
	if s.ConfidenceLevel != 0 {
		cfg.ConfidenceLevel = s.ConfidenceLevel
	}
	if s.Workers != 0 {
		cfg.Workers = s.Workers
	}
	if s.Seed != nil {
		seed := *s.Seed
		cfg.Seed = &seed
	}

	for _, g := range s.Groups {
		var params map[string]float64
		if len(g.Params) > 0 {
			params = make(map[string]float64, len(g.Params))
			for k, v := range g.Params {
				params[k] = v
			}
		}
		cfg.Groups = append(cfg.Groups, sim.GroupSpec{
			Size:         g.Size,
			Distribution: sim.DistributionSpec{Family: sim.DistributionFamily(g.Distribution), Params: params},
		})
	}
	return cfg, nil
}

// FromConfig renders a configuration as a scenario, e.g. to save the resolved
// configuration of a finished run for replay
func FromConfig(cfg sim.SimulationConfig) *Scenario {
	alpha := cfg.Alpha
	trials := cfg.TrialCount
	s := &Scenario{
		Test:             string(cfg.TestFamily),
		Alternative:      string(cfg.Alternative),
		EffectSize:       cfg.EffectSize,
		NullValue:        cfg.NullValue,
		Alpha:            &alpha,
		Trials:           &trials,
		ConfidenceLevel:  cfg.ConfidenceLevel,
		Procedure:        string(cfg.Procedure),
		AddSampleRatio:   cfg.AddSampleRatio,
		RetainTrials:     cfg.RetainTrials,
		Workers:          cfg.Workers,
		DegeneratePolicy: string(cfg.DegeneratePolicy),
	}
	if cfg.Seed != nil {
		seed := *cfg.Seed
		s.Seed = &seed
	}
	for _, g := range cfg.Groups {
		var params map[string]float64
		if len(g.Distribution.Params) > 0 {
			params = make(map[string]float64, len(g.Distribution.Params))
			for k, v := range g.Distribution.Params {
				params[k] = v
			}
		}
		s.Groups = append(s.Groups, Group{Size: g.Size, Distribution: string(g.Distribution.Family), Params: params})
	}
	return s
}

// Encode writes the scenario in the given format
func (s *Scenario) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	default:
		return nil, core.NewInvalidParameterError("format", fmt.Sprintf("unsupported scenario format %q", format))
	}
}

// describe flattens validator errors into "field: rule" pairs
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), rule))
	}
	return strings.Join(parts, "; ")
}
