package main

import (
	"fmt"
	"strconv"
	"strings"

	"sigsim/adapters/scenario"
	"sigsim/domain/sim"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// scenarioFlags describe a simulation on the command line. With --scenario
// the file is the base and explicitly set flags override it.
type scenarioFlags struct {
	file        string
	test        string
	alternative string
	sizes       []int
	dists       []string
	effect      float64
	null        float64
	alpha       float64
	trials      int
	seed        uint64
	confidence  float64
	procedure   string
	ratio       float64
	retain      bool
	workers     int
	degenerate  string
}

func (f *scenarioFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "scenario", "f", "", "YAML or JSON scenario file")
	fs.StringVarP(&f.test, "test", "t", "", "Test family (see sigsim families)")
	fs.StringVar(&f.alternative, "alternative", "", "Alternative hypothesis: two-sided|less|greater")
	fs.IntSliceVarP(&f.sizes, "sizes", "n", nil, "Sample size per group, e.g. -n 30,30")
	fs.StringArrayVar(&f.dists, "dist", nil, "Distribution per group, e.g. --dist normal:mu=0,sigma=1 (repeat per group)")
	fs.Float64VarP(&f.effect, "effect", "e", 0, "Effect size added to the first group")
	fs.Float64Var(&f.null, "null", 0, "Null value for one-sample tests")
	fs.Float64Var(&f.alpha, "alpha", 0, "Significance threshold (default from SIM_ALPHA)")
	fs.IntVar(&f.trials, "trials", 0, "Number of trials (default from SIM_TRIALS)")
	fs.Uint64Var(&f.seed, "seed", 0, "Random seed; omit for a fresh one")
	fs.Float64Var(&f.confidence, "confidence", 0, "Confidence level of the rejection-rate interval")
	fs.StringVar(&f.procedure, "procedure", "", "Testing procedure: basic|retest|add_sample")
	fs.Float64Var(&f.ratio, "add-sample-ratio", 0, "Size multiplier for add_sample")
	fs.BoolVar(&f.retain, "retain-trials", false, "Keep per-trial detail in the result")
	fs.IntVar(&f.workers, "workers", 0, "Parallel workers (default from SIM_WORKERS, 0 = all CPUs)")
	fs.StringVar(&f.degenerate, "degenerate", "", "Degenerate sample policy: fail|count")
}

// document builds the scenario from the file and the flags the user set
func (f *scenarioFlags) document(cmd *cobra.Command) (*scenario.Scenario, error) {
	s := &scenario.Scenario{}
	if f.file != "" {
		loaded, err := scenario.LoadFile(f.file)
		if err != nil {
			return nil, err
		}
		s = loaded
	}

	changed := cmd.Flags().Changed
	if changed("test") {
		s.Test = f.test
	}
	if changed("alternative") {
		s.Alternative = f.alternative
	}
	if changed("sizes") || changed("dist") {
		groups, err := buildGroups(f.sizes, f.dists, s.Groups)
		if err != nil {
			return nil, err
		}
		s.Groups = groups
	}
	if changed("effect") {
		s.EffectSize = f.effect
	}
	if changed("null") {
		s.NullValue = f.null
	}
	if changed("alpha") {
		alpha := f.alpha
		s.Alpha = &alpha
	}
	if changed("trials") {
		trials := f.trials
		s.Trials = &trials
	}
	if changed("seed") {
		seed := f.seed
		s.Seed = &seed
	}
	if changed("confidence") {
		s.ConfidenceLevel = f.confidence
	}
	if changed("procedure") {
		s.Procedure = f.procedure
	}
	if changed("add-sample-ratio") {
		s.AddSampleRatio = f.ratio
	}
	if changed("retain-trials") {
		s.RetainTrials = f.retain
	}
	if changed("workers") {
		s.Workers = f.workers
	}
	if changed("degenerate") {
		s.DegeneratePolicy = f.degenerate
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// config resolves the scenario into an engine configuration
func (f *scenarioFlags) config(cmd *cobra.Command, d scenario.Defaults) (sim.SimulationConfig, error) {
	s, err := f.document(cmd)
	if err != nil {
		return sim.SimulationConfig{}, err
	}
	return s.ToConfig(d)
}

// buildGroups pairs sizes with distributions. A single --dist applies to
// every group; sizes or distributions left out keep the base groups' values.
func buildGroups(sizes []int, dists []string, base []scenario.Group) ([]scenario.Group, error) {
	count := max(len(sizes), len(dists), len(base))
	if len(dists) > 1 && len(sizes) > 1 && len(dists) != len(sizes) {
		return nil, fmt.Errorf("got %d sizes but %d distributions", len(sizes), len(dists))
	}

	groups := make([]scenario.Group, count)
	for i := range groups {
		if i < len(base) {
			groups[i] = base[i]
		} else {
			groups[i].Distribution = string(sim.DistNormal)
		}
		if i < len(sizes) {
			groups[i].Size = sizes[i]
		} else if len(sizes) == 1 {
			groups[i].Size = sizes[0]
		}

		var spec string
		switch {
		case i < len(dists):
			spec = dists[i]
		case len(dists) == 1:
			spec = dists[0]
		default:
			continue
		}
		name, params, err := parseDistribution(spec)
		if err != nil {
			return nil, err
		}
		groups[i].Distribution = name
		groups[i].Params = params
	}
	return groups, nil
}

// parseDistribution reads "family" or "family:key=value,key=value"
func parseDistribution(spec string) (string, map[string]float64, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(spec), ":")
	if name == "" {
		return "", nil, fmt.Errorf("empty distribution in %q", spec)
	}
	if rest == "" {
		return name, nil, nil
	}

	params := map[string]float64{}
	for _, kv := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return "", nil, fmt.Errorf("distribution parameter %q is not key=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", nil, fmt.Errorf("distribution parameter %q: %w", kv, err)
		}
		params[strings.TrimSpace(key)] = v
	}
	return name, params, nil
}
