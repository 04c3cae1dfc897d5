package container

import (
	"fmt"

	"sigsim/adapters/api"
	"sigsim/adapters/excel"
	"sigsim/adapters/rng"
	"sigsim/adapters/scenario"
	"sigsim/adapters/stats/sampling"
	"sigsim/adapters/stats/sigtest"
	"sigsim/app"
	"sigsim/internal"
	"sigsim/internal/config"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	RNG        *rng.StreamAdapter
	Sampler    *sampling.Generator
	Statistics *sigtest.Engine
	Workbook   *excel.ReportWriter

	// Application services
	Service *app.SimulationService
}

// New creates the dependency container for a loaded configuration
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:     cfg,
		Logger:     cfg.Logger(),
		RNG:        rng.NewStreamAdapter(),
		Sampler:    sampling.NewGenerator(),
		Statistics: sigtest.NewEngine(),
		Workbook:   excel.NewReportWriter(),
	}
	c.Service = app.NewSimulationService(app.ServicePorts{
		RNG:       c.RNG,
		Sampler:   c.Sampler,
		Statistic: c.Statistics,
		Power:     c.Statistics,
	}, c.Logger)

	c.Logger.Debug("container initialized: workers=%d trials=%d alpha=%g",
		cfg.Simulation.Workers, cfg.Simulation.Trials, cfg.Simulation.Alpha)
	return c, nil
}

// ScenarioDefaults are the configured values for fields a scenario omits
func (c *Container) ScenarioDefaults() scenario.Defaults {
	s := c.Config.Simulation
	return scenario.Defaults{
		Alpha:           s.Alpha,
		Trials:          s.Trials,
		ConfidenceLevel: s.ConfidenceLevel,
		Workers:         s.Workers,
	}
}

// APIServer builds the HTTP API over the simulation service
func (c *Container) APIServer() *api.Server {
	return api.NewServer(c.Service, api.Options{
		Defaults:       c.ScenarioDefaults(),
		MaxTrials:      c.Config.Simulation.MaxTrials,
		RequestTimeout: c.Config.Server.RequestTimeout,
		MaxBodyBytes:   c.Config.Server.MaxBodyBytes,
	}, c.Logger)
}
